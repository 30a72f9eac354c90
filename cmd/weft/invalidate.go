package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

var invalidateServer string

var invalidateCmd = &cobra.Command{
	Use:   "invalidate <path>",
	Short: "Mark a cached page stale on a running server",
	Long: `Invalidate asks a running weft server to mark the cached render of
a page as stale. The next request for the page regenerates it, falling
back to the stale markup if regeneration fails.`,
	Args: cobra.ExactArgs(1),
	RunE: runInvalidate,
}

func init() {
	invalidateCmd.Flags().StringVarP(&invalidateServer, "server", "s", "http://localhost:3000", "base URL of the running server")
}

func runInvalidate(cmd *cobra.Command, args []string) error {
	resp, err := http.PostForm(invalidateServer+"/__weft/revalidate", url.Values{"path": {args[0]}})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	switch resp.StatusCode {
	case http.StatusOK:
		success("marked %s stale", args[0])
		return nil
	case http.StatusNotFound:
		warn("no cached render for %s", args[0])
		return nil
	default:
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}
}
