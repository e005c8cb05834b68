package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/JonnyWalker81/heldairy/backend/internal/models"
	"github.com/JonnyWalker81/heldairy/backend/internal/service"
	"github.com/JonnyWalker81/heldairy/backend/pkg/deepseek"
)

var adviseCmd = &cobra.Command{
	Use:   "advise <user-id> <entry-id>",
	Short: "Generate advice for one entry and print it",
	Long: `Run the advice flow for one stored entry: local rules, then the remote
service with retries, then the fallback. With --dry-run a canned client is
used instead of the remote service, so no API key is needed.`,
	Args: cobra.ExactArgs(2),
	RunE: runAdvise,
}

var dryRun bool

func init() {
	adviseCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Use a canned advice client instead of the remote service")
}

func runAdvise(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var client service.AdviceClient
	if dryRun {
		client = deepseek.NewMockClient([]deepseek.MockAdvice{{Payload: models.AdvicePayload{
			Observations: []string{"Dry run: no remote call was made"},
			Actions:      []string{"Review the prompt in the debug log"},
		}}}, nil)
	}

	a, err := bootstrap(ctx, client)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	if dryRun {
		// rewire so the canned client is reached even when AI is off in config
		a.settings = service.StaticSettings(true, "dry-run")
		a.wireServices(client)
	}

	record, err := a.advice.GenerateForEntry(ctx, args[0], args[1])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(record)
}
