// SPDX-License-Identifier: MIT

package jp2

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestBoxWalkerBasic(t *testing.T) {
	c := qt.New(t)

	var data []byte
	data = append(data, encodeBox(typeFTYP, []byte("jp2 "))...)
	data = append(data, encodeBox(typeJP2C, make([]byte, 10))...)

	s := NewMemStream(data)
	w := newBoxWalker(s, int64(len(data)), 0)

	b, ok, err := w.next()
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
	c.Assert(b.Type, qt.Equals, typeFTYP)
	c.Assert(w.skip(b), qt.IsNil)

	b, ok, err = w.next()
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
	c.Assert(b.Type, qt.Equals, typeJP2C)
	c.Assert(b.PayloadLen, qt.Equals, int64(10))
	c.Assert(w.skip(b), qt.IsNil)

	_, ok, err = w.next()
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)
}

func TestBoxWalkerZeroLengthExtendsToBound(t *testing.T) {
	c := qt.New(t)

	var data []byte
	data = putU32be(data, 0)
	data = append(data, []byte(typeJP2C)...)
	data = append(data, make([]byte, 20)...)

	s := NewMemStream(data)
	w := newBoxWalker(s, int64(len(data)), 0)

	b, ok, err := w.next()
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
	c.Assert(b.PayloadLen, qt.Equals, int64(20))
	c.Assert(b.End(), qt.Equals, int64(len(data)))
}

func TestBoxWalkerRejectsExtendedLength(t *testing.T) {
	c := qt.New(t)

	var data []byte
	data = putU32be(data, 1)
	data = append(data, []byte(typeJP2C)...)
	data = append(data, make([]byte, 16)...)

	s := NewMemStream(data)
	w := newBoxWalker(s, int64(len(data)), 0)

	_, _, err := w.next()
	c.Assert(err, qt.Not(qt.IsNil))
	c.Assert(IsKind(err, CorruptedMetadata), qt.IsTrue)
}

func TestBoxWalkerRejectsOverrun(t *testing.T) {
	c := qt.New(t)

	var data []byte
	data = putU32be(data, 100)
	data = append(data, []byte(typeJP2C)...)
	data = append(data, make([]byte, 4)...)

	s := NewMemStream(data)
	w := newBoxWalker(s, int64(len(data)), 0)

	_, _, err := w.next()
	c.Assert(err, qt.Not(qt.IsNil))
	c.Assert(IsKind(err, CorruptedMetadata), qt.IsTrue)
}

func TestBoxWalkerEnforcesBudget(t *testing.T) {
	c := qt.New(t)

	var data []byte
	for i := 0; i < 5; i++ {
		data = append(data, encodeBox(typeFTYP, nil)...)
	}

	s := NewMemStream(data)
	w := newBoxWalker(s, int64(len(data)), 3)

	for i := 0; i < 3; i++ {
		b, ok, err := w.next()
		c.Assert(err, qt.IsNil)
		c.Assert(ok, qt.IsTrue)
		c.Assert(w.skip(b), qt.IsNil)
	}

	_, _, err := w.next()
	c.Assert(err, qt.Not(qt.IsNil))
	c.Assert(IsKind(err, CorruptedMetadata), qt.IsTrue)
}

func TestVerifySignature(t *testing.T) {
	c := qt.New(t)

	s := NewMemStream(blankTemplate)
	c.Assert(verifySignature(s), qt.IsNil)

	bad := NewMemStream([]byte("not a jp2 file at all"))
	err := verifySignature(bad)
	c.Assert(err, qt.Not(qt.IsNil))
	c.Assert(IsKind(err, NotAnImage), qt.IsTrue)
}
