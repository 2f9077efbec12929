package cmd

import (
	"net/url"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var peersCmd = &cobra.Command{
	Use:   "peers",
	Short: "Manage the known peers of the node",
}

var peersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the known peers",
	RunE: func(cmd *cobra.Command, args []string) error {
		var ps peers
		if err := newClient(nodeURL).get("/v1/peers", &ps); err != nil {
			return err
		}
		return renderPeers(ps)
	},
}

var peersAddCmd = &cobra.Command{
	Use:   "add host",
	Short: "Add a known peer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var ps peers
		if _, err := newClient(nodeURL).post("/v1/peers", map[string]string{"host": args[0]}, &ps); err != nil {
			return err
		}
		return renderPeers(ps)
	},
}

var peersRemoveCmd = &cobra.Command{
	Use:   "remove host",
	Short: "Remove a known peer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var ps peers
		if err := newClient(nodeURL).delete("/v1/peers/"+url.PathEscape(args[0]), &ps); err != nil {
			return err
		}
		return renderPeers(ps)
	},
}

func init() {
	peersCmd.AddCommand(peersListCmd, peersAddCmd, peersRemoveCmd)
	rootCmd.AddCommand(peersCmd)
}

func renderPeers(ps peers) error {
	if len(ps) == 0 {
		pterm.Info.Println("No known peers")
		return nil
	}

	data := pterm.TableData{{"Host"}}
	for _, p := range ps {
		data = append(data, []string{p.Host})
	}

	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
