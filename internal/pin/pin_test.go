package pin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/gpiodev/internal/diag"
)

func TestRequestValidate(t *testing.T) {
	assert.NoError(t, Request{Number: 17, Mode: ModeInput, Pull: PullUp}.Validate())
	assert.NoError(t, Request{Number: 27, Mode: ModeOutput, Initial: 1}.Validate())

	assert.ErrorIs(t, Request{Number: -1}.Validate(), diag.ErrInvalidConfig)
	assert.ErrorIs(t, Request{Number: 17, Initial: 1.5}.Validate(), diag.ErrInvalidConfig)
	assert.ErrorIs(t, Request{Number: 27, Mode: ModeOutput, Pull: PullUp}.Validate(), diag.ErrInvalidConfig)
}

func TestName(t *testing.T) {
	assert.Equal(t, "GPIO17", Name(17))
	assert.Equal(t, "SDA1", Name(2))
	assert.Equal(t, "", Name(45))
}

func TestCheckRequest(t *testing.T) {
	warnings, err := CheckRequest(Request{Number: 17, Mode: ModeInput, Pull: PullUp})
	require.NoError(t, err)
	assert.Empty(t, warnings)

	warnings, err = CheckRequest(Request{Number: 45, Mode: ModeInput})
	require.NoError(t, err)
	assert.Len(t, warnings, 1, "off-header pins warn but still work")

	warnings, err = CheckRequest(Request{Number: 2, Mode: ModeInput, Pull: PullDown})
	require.NoError(t, err)
	assert.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "pull-up")

	warnings, err = CheckRequest(Request{Number: 0, Mode: ModeInput})
	require.NoError(t, err)
	assert.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "EEPROM")

	_, err = CheckRequest(Request{Number: -1})
	assert.ErrorIs(t, err, diag.ErrInvalidConfig)
}

func TestFakePinReadsAndWrites(t *testing.T) {
	p := NewFakePin(17, 0.5)

	v, err := p.Read()
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)

	require.NoError(t, p.Write(1))
	v, err = p.Read()
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	assert.Equal(t, 1, p.WriteCount())
	last, ok := p.LastWrite()
	require.True(t, ok)
	assert.Equal(t, 1.0, last)
}

func TestFakePinScript(t *testing.T) {
	p := NewFakePin(17, 0)
	p.SetScript(0, 1, 0)

	var got []float64
	for i := 0; i < 5; i++ {
		v, err := p.Read()
		require.NoError(t, err)
		got = append(got, v)
	}
	// The last scripted entry repeats once exhausted.
	assert.Equal(t, []float64{0, 1, 0, 0, 0}, got)
}

func TestFakePinErrors(t *testing.T) {
	p := NewFakePin(17, 0)

	p.SetReadErr(assert.AnError)
	_, err := p.Read()
	assert.ErrorIs(t, err, assert.AnError)
	p.SetReadErr(nil)
	_, err = p.Read()
	assert.NoError(t, err)

	p.SetWriteErr(assert.AnError)
	assert.ErrorIs(t, p.Write(1), assert.AnError)
}

func TestFakePinClose(t *testing.T) {
	p := NewFakePin(17, 0)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.True(t, p.Closed())

	_, err := p.Read()
	assert.Error(t, err)
	assert.Error(t, p.Write(1))
}

func TestFakeFactoryReturnsSamePin(t *testing.T) {
	f := NewFakeFactory()
	defer f.Close()

	p1, err := f.Open(Request{Number: 17, Mode: ModeInput, Pull: PullUp})
	require.NoError(t, err)
	p2, err := f.Open(Request{Number: 17, Mode: ModeInput, Pull: PullUp})
	require.NoError(t, err)
	assert.Same(t, p1, p2)

	assert.Same(t, p1, f.Pin(17))
}

func TestFakeFactoryPreSeed(t *testing.T) {
	f := NewFakeFactory()
	defer f.Close()

	f.Pin(17).Set(1)

	p, err := f.Open(Request{Number: 17, Mode: ModeInput, Pull: PullUp})
	require.NoError(t, err)
	v, err := p.Read()
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
}

func TestFakeFactoryErrors(t *testing.T) {
	f := NewFakeFactory()

	_, err := f.Open(Request{Number: -1})
	assert.ErrorIs(t, err, diag.ErrInvalidConfig)

	f.OpenErr = assert.AnError
	_, err = f.Open(Request{Number: 17, Mode: ModeInput})
	assert.ErrorIs(t, err, assert.AnError)
	f.OpenErr = nil

	require.NoError(t, f.Close())
	_, err = f.Open(Request{Number: 17, Mode: ModeInput})
	assert.Error(t, err)
}
