package testutil

import (
	"fmt"
	"io"

	"gitsnap/internal/snap"
)

// stubPrefix marks data "encrypted" by the stub.
const stubPrefix = "STUB-ENC:"

// StubEncryptor is a trivially reversible snap.Encryptor for tests. It
// prefixes data with a marker; Decrypt strips it. Setup records the
// passphrase and Unlock checks it.
type StubEncryptor struct {
	configured bool
	passphrase string
}

var _ snap.Encryptor = (*StubEncryptor)(nil)

func NewStubEncryptor() *StubEncryptor { return &StubEncryptor{} }

func (e *StubEncryptor) Setup(passphrase string) error {
	e.configured = true
	e.passphrase = passphrase
	return nil
}

func (e *StubEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := io.WriteString(w, stubPrefix); err != nil {
		return err
	}
	_, err := io.Copy(w, r)
	return err
}

func (e *StubEncryptor) Unlock(passphrase string) (snap.DecryptionContext, error) {
	if !e.configured {
		return nil, fmt.Errorf("not configured")
	}
	if passphrase != e.passphrase {
		return nil, fmt.Errorf("incorrect passphrase")
	}
	return stubDecryptionContext{}, nil
}

func (e *StubEncryptor) IsConfigured() bool { return e.configured }

type stubDecryptionContext struct{}

func (stubDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(data) < len(stubPrefix) || string(data[:len(stubPrefix)]) != stubPrefix {
		return fmt.Errorf("data was not encrypted by the stub")
	}
	_, err = w.Write(data[len(stubPrefix):])
	return err
}
