// Package idgen produces message identifiers. The strategy is chosen by
// configuration; every strategy yields unique, non-empty strings.
package idgen

import (
	"fmt"
	"strings"

	"github.com/weiawesome/wes-io-chat/internal/config"
)

// Generator produces unique identifiers.
type Generator interface {
	Generate() (string, error)
}

// Strategy names accepted by New.
const (
	UUID      = "uuid"
	ULID      = "ulid"
	KSUID     = "ksuid"
	NanoID    = "nanoid"
	CUID2     = "cuid2"
	Snowflake = "snowflake"
)

// New returns the generator configured by cfg. An empty name selects UUID.
func New(cfg config.IDConfig) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Generator)) {
	case "", UUID:
		return NewUUIDGenerator(), nil
	case ULID:
		return NewULIDGenerator(), nil
	case KSUID:
		return NewKSUIDGenerator(), nil
	case NanoID:
		return NewNanoIDGenerator(DefaultNanoIDSize, DefaultNanoIDAlphabet)
	case CUID2:
		return NewCUID2Generator(DefaultCUID2Length)
	case Snowflake:
		return NewSnowflakeGenerator(cfg.MachineID, DefaultEpoch)
	default:
		return nil, fmt.Errorf("unknown id generator %q", cfg.Generator)
	}
}
