package exchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFactory_UnknownExchange tests that an unregistered venue is rejected
func TestFactory_UnknownExchange(t *testing.T) {
	_, err := New("no-such-venue", map[string]string{})
	require.Error(t, err)
	assert.True(t, IsInvalidRequest(err))
}

// TestFactory_RegisterAndConstruct tests registry dispatch and name normalization
func TestFactory_RegisterAndConstruct(t *testing.T) {
	Register("factorytest", func(cfg map[string]string) (Exchange, error) {
		v := NewValues("factorytest", cfg)
		BaseSettings(v)
		if err := v.Err(); err != nil {
			return nil, err
		}
		return &stubExchange{name: "factorytest"}, nil
	})

	ex, err := New("  FactoryTest ", map[string]string{
		"api_key":    "K",
		"api_secret": "S",
	})
	require.NoError(t, err)
	assert.Equal(t, "factorytest", ex.Name())

	assert.Contains(t, Supported(), "factorytest")
}

// TestFactory_ConfigurationFailureIsEager tests that bad settings fail at construction
func TestFactory_ConfigurationFailureIsEager(t *testing.T) {
	Register("factorytest-eager", func(cfg map[string]string) (Exchange, error) {
		v := NewValues("factorytest-eager", cfg)
		BaseSettings(v)
		if err := v.Err(); err != nil {
			return nil, err
		}
		return &stubExchange{name: "factorytest-eager"}, nil
	})

	_, err := New("factorytest-eager", map[string]string{"api_key": "K"})
	require.Error(t, err)
	assert.True(t, IsConfiguration(err))
}
