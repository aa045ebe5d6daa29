//go:build !unix

package region

func mapAnon(size int) ([]byte, func([]byte) error, error) {
	return make([]byte, size), func([]byte) error { return nil }, nil
}

func lockMem([]byte) error   { return nil }
func unlockMem([]byte) error { return nil }
