package config

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/brookluers/cmimpute/impute"
	"github.com/brookluers/cmimpute/survival"
)

// assertDefault compares cfg to the defaults, treating nil and empty
// covariate lists alike.
func assertDefault(t *testing.T, cfg Config) {
	t.Helper()
	want := Default()
	assert.Empty(t, cfg.Covariates)
	cfg.Covariates, want.Covariates = nil, nil
	assert.Equal(t, want, cfg)
}

func TestDefaults(t *testing.T) {

	v := viper.New()
	Bind(v)
	cfg, err := Load(v)
	require.NoError(t, err)
	assertDefault(t, cfg)

	ic, err := cfg.Impute(nil)
	require.NoError(t, err)
	assert.Equal(t, survival.Expo{}, ic.Tail)
	assert.Equal(t, impute.Origin, ic.BeforeFirst)

	bc, err := cfg.Boot()
	require.NoError(t, err)
	assert.Equal(t, 10, bc.M)
}

func TestYAMLFile(t *testing.T) {

	in := `
time: t
event: d
covariates: [z1, z2]
tail: zero
before_first: error
m: 5
seed: 42
formula: y ~ imp
log:
  level: debug
  format: json
`
	v := viper.New()
	Bind(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(in)))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "t", cfg.Time)
	assert.Equal(t, []string{"z1", "z2"}, cfg.Covariates)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, "y ~ imp", cfg.Formula)

	ic, err := cfg.Impute(nil)
	require.NoError(t, err)
	assert.Equal(t, survival.Zero{}, ic.Tail)
	assert.Equal(t, impute.Fail, ic.BeforeFirst)

	log, err := cfg.Logger()
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}

func TestEnvironment(t *testing.T) {

	t.Setenv("CMIMPUTE_TAIL", "carryforward")
	t.Setenv("CMIMPUTE_LOG_LEVEL", "warn")
	t.Setenv("CMIMPUTE_M", "3")

	v := viper.New()
	Bind(v)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "carryforward", cfg.Tail)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 3, cfg.M)
}

func TestInvalid(t *testing.T) {

	cfg := Default()
	cfg.Tail = "linear"
	_, err := cfg.Impute(nil)
	assert.ErrorIs(t, err, ErrInvalid)

	cfg = Default()
	cfg.BeforeFirst = "skip"
	_, err = cfg.Impute(nil)
	assert.ErrorIs(t, err, ErrInvalid)

	cfg = Default()
	cfg.M = 0
	_, err = cfg.Boot()
	assert.ErrorIs(t, err, ErrInvalid)

	cfg = Default()
	cfg.Log.Format = "xml"
	_, err = cfg.Logger()
	assert.ErrorIs(t, err, ErrInvalid)

	cfg = Default()
	cfg.Log.Level = "loud"
	_, err = cfg.Logger()
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestYAMLMarshal(t *testing.T) {

	b, err := yaml.Marshal(Default())
	require.NoError(t, err)
	assert.Contains(t, string(b), "before_first: origin")

	var cfg Config
	require.NoError(t, yaml.Unmarshal(b, &cfg))
	assertDefault(t, cfg)
}
