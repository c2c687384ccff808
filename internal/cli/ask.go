package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ask <utterance>",
		Short: "Ask a single question and print the response",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAsk,
	}
	cmd.Flags().Bool("json", false, "Print the structured response as JSON")
	RootCmd.AddCommand(cmd)
}

func runAsk(cmd *cobra.Command, args []string) {
	orch, cleanup, err := buildCore(cmd.Context())
	if err != nil {
		exitErr("inicialização", err)
	}
	defer cleanup()

	sessionID := orch.StartSession()
	defer orch.EndSession(sessionID)

	resp := orch.HandleUtterance(cmd.Context(), sessionID, strings.Join(args, " "))

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		b, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(b))
		return
	}
	fmt.Println(resp.Text)
}
