package attribution

import (
	"fmt"
)

const (
	DefaultNumPartitions        = 2
	DefaultOptimalLambdaSamples = 64
	DefaultMaxCondition         = 1e12
)

// Config selects the attribution methods run for a round and tunes them.
// Every field can be set from the environment or from the [attribution]
// table of a TOML file.
type Config struct {
	Exact                          bool    `env:"EXACT"                             envDefault:"true"  toml:"exact"                             json:"exact"`
	ConstLambda                    bool    `env:"CONST_LAMBDA"                      envDefault:"true"  toml:"const_lambda"                      json:"const_lambda"`
	OptimalLambda                  bool    `env:"OPTIMAL_LAMBDA"                    envDefault:"true"  toml:"optimal_lambda"                    json:"optimal_lambda"`
	NumPartitions                  int     `env:"NUM_PARTITIONS"                    envDefault:"2"     toml:"num_partitions"                    json:"num_partitions"`
	OptimalLambdaSamples           int     `env:"OPTIMAL_LAMBDA_SAMPLES"            envDefault:"64"    toml:"optimal_lambda_samples"            json:"optimal_lambda_samples"`
	PreviousRoundAccForEmptySubset bool    `env:"PREVIOUS_RND_ACC_FOR_EMPTY_SUBSET" envDefault:"false" toml:"previous_rnd_acc_for_empty_subset" json:"previous_rnd_acc_for_empty_subset"`
	Seed                           int64   `env:"SEED"                              envDefault:"0"     toml:"seed"                              json:"seed"`
	Scale                          float64 `env:"SCALE"                             envDefault:"1000"  toml:"scale"                             json:"scale"`
	Workers                        int     `env:"WORKERS"                           envDefault:"0"     toml:"workers"                           json:"workers"`
	MaxCondition                   float64 `env:"MAX_CONDITION"                     envDefault:"1e12"  toml:"max_condition"                     json:"max_condition"`
	AbortOnError                   bool    `env:"ABORT_ON_ERROR"                    envDefault:"false" toml:"abort_on_error"                    json:"abort_on_error"`
}

func DefaultConfig() Config {
	return Config{
		Exact:                true,
		ConstLambda:          true,
		OptimalLambda:        true,
		NumPartitions:        DefaultNumPartitions,
		OptimalLambdaSamples: DefaultOptimalLambdaSamples,
		Scale:                1000,
		MaxCondition:         DefaultMaxCondition,
	}
}

// Validate rejects configurations that cannot produce a result. It runs
// before any utility is evaluated.
func (c Config) Validate() error {
	switch {
	case c.NumPartitions <= 0:
		return fmt.Errorf("%w: num_partitions must be positive, got %d", ErrInvalidConfig, c.NumPartitions)
	case c.OptimalLambdaSamples <= 0:
		return fmt.Errorf("%w: optimal_lambda_samples must be positive, got %d", ErrInvalidConfig, c.OptimalLambdaSamples)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfig, c.Workers)
	case c.Scale <= 0:
		return fmt.Errorf("%w: scale must be positive, got %g", ErrInvalidConfig, c.Scale)
	case c.MaxCondition < 0:
		return fmt.Errorf("%w: max_condition must not be negative, got %g", ErrInvalidConfig, c.MaxCondition)
	case len(c.Methods()) == 0:
		return ErrNoMethods
	}

	return nil
}

// Methods lists the enabled methods in execution order.
func (c Config) Methods() []Method {
	var methods []Method
	if c.Exact {
		methods = append(methods, MethodExact)
	}
	if c.ConstLambda {
		methods = append(methods, MethodConstLambda)
	}
	if c.OptimalLambda {
		methods = append(methods, MethodOptimalLambda)
	}

	return methods
}
