// Package elfx provides the minimal ELF access the machine-code frontend
// needs: opening an image and pulling the bytes of its text section.
package elfx

import (
	"debug/elf"
	"fmt"
)

type Section struct {
	Name     string
	VA, Size uint64
}

type Image struct {
	Path string
	File *elf.File
	Text Section
}

func Open(path string) (*Image, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open elf: %w", err)
	}

	im := &Image{Path: path, File: f}
	if s := f.Section(".text"); s != nil {
		im.Text = Section{Name: s.Name, VA: s.Addr, Size: s.Size}
	}
	return im, nil
}

// Machine reports the target architecture of the image.
func (im *Image) Machine() elf.Machine { return im.File.Machine }

// TextBytes returns the contents of the text section.
func (im *Image) TextBytes() ([]byte, error) {
	s := im.File.Section(".text")
	if s == nil {
		return nil, fmt.Errorf("%s: no .text section", im.Path)
	}
	data, err := s.Data()
	if err != nil {
		return nil, fmt.Errorf("read .text: %w", err)
	}
	return data, nil
}

func (im *Image) Close() error { return im.File.Close() }
