package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// exitWords end the interactive loop, matching the assistant's documented
// usage in Portuguese and English.
var exitWords = map[string]struct{}{
	"sair":   {},
	"exit":   {},
	"quit":   {},
	":q":     {},
	"fechar": {},
}

func init() {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive conversation with the assistant",
		Run:   runChat,
	}
	RootCmd.AddCommand(cmd)
}

func runChat(cmd *cobra.Command, _ []string) {
	orch, cleanup, err := buildCore(cmd.Context())
	if err != nil {
		exitErr("inicialização", err)
	}
	defer cleanup()

	sessionID := orch.StartSession()
	defer orch.EndSession(sessionID)

	fmt.Println("\n=== Assistente Editorial ===")
	fmt.Println("Digite 'sair' para encerrar, 'limpar' para recomeçar.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if _, quit := exitWords[strings.ToLower(text)]; quit {
			fmt.Println("Até mais!")
			break
		}

		resp := orch.HandleUtterance(cmd.Context(), sessionID, text)
		fmt.Println("\n" + resp.Text + "\n")
	}
}
