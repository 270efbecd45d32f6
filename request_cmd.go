package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <path>",
		Short: "Issue an authenticated GET (e.g. /record/v1/customer/123)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newEngine()
			if err != nil {
				return err
			}

			result, err := engine.Get(cmd.Context(), args[0], nil)
			if err != nil {
				return err
			}

			return printJSON(result)
		},
	}
}

func newPostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post <path>",
		Short: "Issue an authenticated POST with a JSON body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithBody(cmd, args[0], http.MethodPost)
		},
	}

	addBodyFlag(cmd)

	return cmd
}

func newPutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <path>",
		Short: "Issue an authenticated PUT with a JSON body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithBody(cmd, args[0], http.MethodPut)
		},
	}

	addBodyFlag(cmd)

	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <path>",
		Short: "Issue an authenticated DELETE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newEngine()
			if err != nil {
				return err
			}

			result, err := engine.Delete(cmd.Context(), args[0], nil)
			if err != nil {
				return err
			}

			return printJSON(result)
		},
	}
}

func newQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <suiteql>",
		Short: "Run a SuiteQL query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newEngine()
			if err != nil {
				return err
			}

			result, err := engine.ExecuteQuery(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return printJSON(result)
		},
	}
}

func addBodyFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("data", "d", "", "request body; reads stdin when omitted")
}

// runWithBody resolves the request body from --data or stdin and issues the
// call through the engine.
func runWithBody(cmd *cobra.Command, path, method string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}

	body, err := requestBody(cmd)
	if err != nil {
		return err
	}

	var result []byte

	switch method {
	case http.MethodPost:
		result, err = engine.Post(cmd.Context(), path, body, nil)
	case http.MethodPut:
		result, err = engine.Put(cmd.Context(), path, body, nil)
	default:
		return fmt.Errorf("unsupported method %s", method)
	}

	if err != nil {
		return err
	}

	return printJSON(result)
}

func requestBody(cmd *cobra.Command) ([]byte, error) {
	data, err := cmd.Flags().GetString("data")
	if err != nil {
		return nil, err
	}

	if data != "" {
		return []byte(data), nil
	}

	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("reading body from stdin: %w", err)
	}

	return raw, nil
}
