// Copyright (c) 2025 Niema Moshiri and The Zaparoo Project.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of go-romprops.
//
// go-romprops is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-romprops is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-romprops.  If not, see <https://www.gnu.org/licenses/>.

package source

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCloser struct {
	closes int
}

func (c *countingCloser) Close() error {
	c.closes++
	return nil
}

func TestHandleReadAt(t *testing.T) {
	t.Parallel()

	h := FromBytes("mem.bin", []byte("0123456789"))
	defer func() { _ = h.Close() }()

	buf := make([]byte, 4)
	n, err := h.ReadAt(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "2345", string(buf))

	n, err = h.ReadAt(buf, 8)
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 2, n)

	_, err = h.ReadAt(buf, 10)
	require.ErrorIs(t, err, io.EOF)

	_, err = h.ReadAt(buf, -1)
	require.ErrorIs(t, err, ErrNegativeOffset)
}

func TestSubBounds(t *testing.T) {
	t.Parallel()

	h := FromBytes("mem.bin", []byte("0123456789"))
	defer func() { _ = h.Close() }()

	sub, err := Sub(h, 3, 4, "")
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()

	assert.Equal(t, int64(4), sub.Size())
	buf := make([]byte, 8)
	n, err := sub.ReadAt(buf, 0)
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "3456", string(buf[:n]))

	nested, err := Sub(sub, 1, 2, "inner")
	require.NoError(t, err)
	defer func() { _ = nested.Close() }()
	n, err = nested.ReadAt(buf[:2], 0)
	require.NoError(t, err)
	assert.Equal(t, "45", string(buf[:n]))

	for _, tc := range []struct{ off, length int64 }{{-1, 1}, {0, 11}, {10, 1}, {5, -1}} {
		_, err := Sub(h, tc.off, tc.length, "")
		require.ErrorIs(t, err, ErrOutOfRange, "Sub(%d, %d)", tc.off, tc.length)
	}
}

func TestRefcountClosesOnLastRelease(t *testing.T) {
	t.Parallel()

	cc := &countingCloser{}
	root := New("mem", byteReader("abcdef"), 6, cc)
	sub, err := Sub(root, 1, 2, "")
	require.NoError(t, err)
	dup, err := root.Acquire()
	require.NoError(t, err)
	assert.Equal(t, 3, root.Refs())

	require.NoError(t, root.Close())
	require.NoError(t, root.Close())
	assert.Equal(t, 0, cc.closes)

	_, err = root.ReadAt(make([]byte, 1), 0)
	require.ErrorIs(t, err, ErrClosed)

	buf := make([]byte, 2)
	_, err = sub.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "bc", string(buf))

	require.NoError(t, sub.Close())
	require.NoError(t, dup.Close())
	assert.Equal(t, 1, cc.closes)
}

func TestSubOfClosedHandle(t *testing.T) {
	t.Parallel()

	h := FromBytes("mem", []byte("abc"))
	require.NoError(t, h.Close())
	_, err := Sub(h, 0, 1, "")
	require.ErrorIs(t, err, ErrClosed)
	_, err = h.Acquire()
	require.ErrorIs(t, err, ErrClosed)
}

func TestDeriveReleasesParent(t *testing.T) {
	t.Parallel()

	cc := &countingCloser{}
	parent := New("disc.cso", byteReader("compressed"), 10, cc)
	var inner *Handle
	derived, err := Derive(parent, "ciso", func(ref *Handle) (io.ReaderAt, int64, error) {
		inner = ref
		return byteReader("plain data"), 10, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, parent.Refs())

	require.NoError(t, parent.Close())
	assert.Equal(t, 0, cc.closes)
	assert.Equal(t, ".cso", derived.Ext())

	require.NoError(t, derived.Close())
	assert.True(t, inner.Closed())
	assert.Equal(t, 1, cc.closes)
}

func TestDeriveBuildFailureReleasesReference(t *testing.T) {
	t.Parallel()

	parent := FromBytes("disc.cso", []byte("junk"))
	defer func() { _ = parent.Close() }()

	_, err := Derive(parent, "ciso", func(*Handle) (io.ReaderAt, int64, error) {
		return nil, 0, errors.New("bad header")
	})
	require.Error(t, err)
	assert.Equal(t, 1, parent.Refs())
}

func TestIdentity(t *testing.T) {
	t.Parallel()

	a := FromBytes("same", []byte("0123456789"))
	b := FromBytes("same", []byte("0123456789"))
	c := FromBytes("other", []byte("0123456789"))
	defer func() { _ = errors.Join(a.Close(), b.Close(), c.Close()) }()

	assert.Equal(t, a.Identity(), b.Identity())
	assert.NotEqual(t, a.Identity().Key(), c.Identity().Key())

	subA, err := Sub(a, 2, 3, "")
	require.NoError(t, err)
	defer func() { _ = subA.Close() }()
	assert.NotEqual(t, a.Identity().Key(), subA.Identity().Key())
	assert.Equal(t, int64(2), subA.Identity().Offset)

	build := func(*Handle) (io.ReaderAt, int64, error) { return byteReader("x"), 1, nil }
	d1, err := Derive(a, "ciso", build)
	require.NoError(t, err)
	defer func() { _ = d1.Close() }()
	d2, err := Derive(a, "cbc", build)
	require.NoError(t, err)
	defer func() { _ = d2.Close() }()
	assert.NotEqual(t, d1.Identity(), d2.Identity())
}

func TestOpenFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "Game.ISO")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	h, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, int64(5), h.Size())
	assert.Equal(t, ".iso", h.Ext())
	require.NoError(t, h.Close())

	_, err = Open(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)

	_, err = Open(t.TempDir())
	require.Error(t, err)
}
