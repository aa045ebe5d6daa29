//go:build unix

package region

import (
	"errors"

	"golang.org/x/sys/unix"
)

func mapAnon(size int) ([]byte, func([]byte) error, error) {
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, err
	}
	return data, munmap, nil
}

func munmap(data []byte) error {
	err := unix.Munmap(data)
	if errors.Is(err, unix.EINVAL) {
		// already unmapped
		return nil
	}
	return err
}

func lockMem(data []byte) error {
	return unix.Mlock(data)
}

func unlockMem(data []byte) error {
	return unix.Munlock(data)
}
