package serialport

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

func TestNormalizeDefaults(t *testing.T) {
	got, err := PortOptions{}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, PortOptions{BaudRate: DefaultBaudRate, DataBits: 8, StopBits: 1, Parity: "N"}, got)

	got, err = PortOptions{BaudRate: -5}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, DefaultBaudRate, got.BaudRate)
}

func TestNormalizeExplicitValues(t *testing.T) {
	got, err := PortOptions{BaudRate: 9600, DataBits: 7, StopBits: 2, Parity: " even "}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, PortOptions{BaudRate: 9600, DataBits: 7, StopBits: 2, Parity: "E"}, got)
}

func TestNormalizeErrors(t *testing.T) {
	tests := []struct {
		name string
		opts PortOptions
		want string
	}{
		{"data bits", PortOptions{DataBits: 9}, "invalid data bits"},
		{"stop bits", PortOptions{StopBits: 3}, "invalid stop bits"},
		{"parity", PortOptions{Parity: "mark"}, "unsupported parity"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := tt.opts.Normalize()
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestSerialMode(t *testing.T) {
	mode, err := PortOptions{StopBits: 2, Parity: "O"}.SerialMode()
	require.NoError(t, err)
	assert.Equal(t, &serial.Mode{
		BaudRate: DefaultBaudRate,
		DataBits: 8,
		Parity:   serial.OddParity,
		StopBits: serial.TwoStopBits,
	}, mode)

	_, err = PortOptions{Parity: "X"}.SerialMode()
	assert.Error(t, err)
}

func TestOpenErrors(t *testing.T) {
	_, err := Open("", PortOptions{})
	assert.ErrorContains(t, err, "no serial device")

	_, err = Open("/dev/null", PortOptions{DataBits: 4})
	assert.ErrorContains(t, err, "invalid data bits")

	_, err = Open(filepath.Join(t.TempDir(), "ttyMissing"), PortOptions{})
	assert.ErrorContains(t, err, "open serial port")
}
