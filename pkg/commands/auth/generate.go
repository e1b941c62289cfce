package auth

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/common"
	"github.com/relaykit/relayctl/pkg/common/output"
)

var GenerateCommand = &cli.Command{
	Name:    "generate",
	Aliases: []string{"gen", "new"},
	Usage:   "Generate a new private key and optionally store it in OS keyring",
	Flags: append(append([]cli.Flag{}, common.GlobalFlags...),
		common.NetworkFlag,
		&cli.BoolFlag{
			Name:    "store",
			Aliases: []string{"s"},
			Usage:   "Automatically store the generated key in OS keyring",
		},
	),
	Action: generateAction,
}

func generateAction(cCtx *cli.Context) error {
	logger := common.LoggerFromContext(cCtx)
	store := cCtx.Bool("store")

	privateKey, addr, err := generatePrivateKey()
	if err != nil {
		return fmt.Errorf("failed to generate private key: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("\nA new private key was generated for you.\n")
	sb.WriteString("IMPORTANT: You MUST backup this key now. It will never be shown again.\n")
	sb.WriteString("It owns every smart wallet derived from it.\n\n")
	sb.WriteString(fmt.Sprintf("Address:     %s\n", addr))
	sb.WriteString(fmt.Sprintf("Private key: %s\n", privateKey))
	sb.WriteString("\nWhen finished backing up, press 'q' to exit this view.\n\n")

	displayed, err := showPrivateKey(sb.String())
	if err != nil {
		return fmt.Errorf("failed to display sensitive content: %w", err)
	}
	if !displayed {
		fmt.Println("\nYou chose not to display the key.")
		if !store {
			fmt.Println("Use the --store flag if you want to generate and store without displaying.")
			return nil
		}
	}

	if !store && displayed {
		store, err = output.ConfirmWithDefault("Store this key in your OS keyring?", true)
		if err != nil {
			return fmt.Errorf("failed to get confirmation: %w", err)
		}
	}
	if !store {
		logger.Info("Key generated successfully (not stored)")
		logger.Info("Address: %s", addr)
		return nil
	}

	network := keyNetwork(cCtx)
	proceed, err := confirmOverwrite(network)
	if err != nil {
		return err
	}
	if !proceed {
		logger.Info("Key generation completed but not stored - existing key preserved")
		return nil
	}

	if err := common.StorePrivateKey(network, privateKey); err != nil {
		return fmt.Errorf("failed to store private key in keyring: %w", err)
	}

	logger.Info("Key generated and stored successfully")
	logger.Info("Address: %s", addr)
	logger.Info("Stored as: %s", network)
	return nil
}
