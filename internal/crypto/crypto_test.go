// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpen(t *testing.T) {
	box := NewBox([]byte("s3cret"))
	require.NotNil(t, box)

	plaintext := []byte("OrpheanBeholderScryDoubt")
	msg, err := box.Seal(plaintext)
	require.NoError(t, err)
	assert.NotEmpty(t, msg)

	decrypted, err := box.Open(msg)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestSealOpen_sameSecret(t *testing.T) {
	plaintext := []byte("OrpheanBeholderScryDoubt")
	msg, err := NewBox([]byte("s3cret")).Seal(plaintext)
	require.NoError(t, err)

	decrypted, err := NewBox([]byte("s3cret")).Open(msg)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestOpen_wrongSecret(t *testing.T) {
	msg, err := NewBox([]byte("s3cret")).Seal([]byte("OrpheanBeholderScryDoubt"))
	require.NoError(t, err)

	_, err = NewBox([]byte("another")).Open(msg)
	require.ErrorIs(t, err, ErrDecrypt)
}

func TestOpen_tooShort(t *testing.T) {
	_, err := NewBox([]byte("s3cret")).Open([]byte("short"))
	require.ErrorIs(t, err, ErrMsgTooShort)
}
