// SPDX-License-Identifier: MIT

package jp2_test

import (
	"testing"
	"time"

	"github.com/jp2meta/jp2"
)

// FuzzOpenMem exercises the "bounded time on adversarial input" property:
// however the box-grammar walk goes wrong, OpenMem must return within its
// Timeout instead of spinning or panicking. Seeded with the blank template
// plus a handful of hand-built malformed headers, mirroring the teacher's
// own FuzzDecode seed-corpus approach.
func FuzzOpenMem(f *testing.F) {
	blank, err := jp2.NewBlank(jp2.Options{})
	if err != nil {
		f.Fatal(err)
	}
	defer blank.Close()

	f.Add(blankTemplateBytes(f))
	f.Add([]byte{0x00, 0x00, 0x00, 0x0c, 'j', 'P', ' ', ' ', 0x0d, 0x0a, 0x87, 0x0a})
	f.Add([]byte{0x00, 0x00, 0x00, 0x0c, 'j', 'P', ' ', ' ', 0x0d, 0x0a, 0x87, 0x0a, 0, 0, 0, 1, 'j', 'p', '2', 'h'})
	f.Add([]byte{0x00, 0x00, 0x00, 0x0c, 'j', 'P', ' ', ' ', 0x0d, 0x0a, 0x87, 0x0a, 0xff, 0xff, 0xff, 0xff, 'j', 'p', '2', 'h'})
	f.Add([]byte("not a jp2 file"))

	f.Fuzz(func(t *testing.T, data []byte) {
		img, err := jp2.OpenMem(data, jp2.Options{Timeout: 200 * time.Millisecond})
		if err != nil {
			return
		}
		img.Close()
	})
}

func blankTemplateBytes(f *testing.F) []byte {
	img, err := jp2.NewBlank(jp2.Options{})
	if err != nil {
		f.Fatal(err)
	}
	defer img.Close()

	dst := jp2.NewMemStream(nil)
	if err := img.WriteTo(dst); err != nil {
		f.Fatal(err)
	}
	if _, err := dst.Seek(0, jp2.SeekBegin); err != nil {
		f.Fatal(err)
	}
	out := make([]byte, 0, 256)
	buf := make([]byte, 64)
	for {
		n, err := dst.Read(buf)
		out = append(out, buf[:n]...)
		if err != nil {
			break
		}
	}
	return out
}
