package config

import (
	"github.com/rs/zerolog/log"
)

// Endpoint configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// NodeRPC is the JSON-RPC endpoint of the chain node fronting the
	// reputation contract.
	NodeRPC string
	// ReputationContract is the address of the deployed reputation contract.
	ReputationContract string
)

// loadEndpointConfig loads endpoint configuration from environment variables.
// This function is called by LoadConfig() in General.go.
func loadEndpointConfig() error {
	log.Info().Msg("Loading endpoint configuration from environment variables...")

	var err error

	NodeRPC, err = getEnv("NODE_RPC")
	if err != nil {
		return err
	}

	ReputationContract, err = getEnv("REPUTATION_CONTRACT")
	if err != nil {
		return err
	}

	log.Debug().
		Str("NodeRPC", NodeRPC).
		Str("ReputationContract", ReputationContract).
		Msg("Endpoint configuration loaded successfully.")

	return nil
}
