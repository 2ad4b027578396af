// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package cli // import "lettre.app/internal/cli"

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"lettre.app/internal/config"
	"lettre.app/internal/crypto"
	"lettre.app/internal/gmail"
	"lettre.app/internal/storage"
)

var authorizeCmd = cobra.Command{
	Use:   "authorize [code]",
	Short: "Authorize access to the Gmail account",

	Long: `Authorize access to the Gmail account.

Without arguments the command prints the Google consent URL, then reads the
authorization code from stdin. The code may also be passed as an argument.
The resulting OAuth token is encrypted and stored in the database.
`,

	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStorage(
			func(ctx context.Context, store *storage.Storage) error {
				return authorize(ctx, store, args)
			})
	},
}

func authorize(ctx context.Context, store *storage.Storage, args []string,
) error {
	code := ""
	if len(args) > 0 {
		code = args[0]
	} else {
		fmt.Println("Visit the following URL and paste the code below:")
		fmt.Println()
		fmt.Println(gmail.AuthCodeURL())
		fmt.Println()
		fmt.Print("Code: ")

		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("read authorization code: %w", err)
		}
		code = strings.TrimSpace(line)
	}

	if code == "" {
		return fmt.Errorf("empty authorization code")
	}

	box := crypto.NewBox(config.Opts.CredentialsKey())
	if err := gmail.Authorize(ctx, store, box, code); err != nil {
		return err
	}
	fmt.Println("Gmail account authorized.")
	return nil
}
