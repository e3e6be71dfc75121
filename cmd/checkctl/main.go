// checkctl operates the healthwatch registry from the command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/hamed0406/healthwatch/internal/client"
	"github.com/hamed0406/healthwatch/internal/domain"
	"github.com/hamed0406/healthwatch/internal/probe"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func defaultAddr() string {
	if v := os.Getenv("REGISTRY_URL"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func newRootCmd() *cobra.Command {
	var addr string

	root := &cobra.Command{
		Use:           "checkctl",
		Short:         "Manage healthwatch checks and query their results",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&addr, "addr", "a", defaultAddr(), "registry base URL")

	registry := func() *client.Client {
		return client.New(addr, 10*time.Second)
	}

	root.AddCommand(
		newGetCmd(registry),
		newListCmd(registry),
		newResultsCmd(registry),
		newSummaryCmd(registry),
		newCreateCmd(registry),
		newUpdateCmd(registry),
		newDeleteCmd(registry),
		newEnableCmd(registry),
		newDisableCmd(registry),
		newCheckCmd(),
	)
	return root
}

type registryFn func() *client.Client

func parseID(raw string) (domain.CheckID, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid check id %q", raw)
	}
	return domain.CheckID(id), nil
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func newGetCmd(registry registryFn) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one check",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			h, err := registry().GetCheck(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(h)
		},
	}
}

func newListCmd(registry registryFn) *cobra.Command {
	var disabled bool
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled := !disabled
			hs, err := registry().ListChecks(cmd.Context(), &enabled, 0, limit)
			if err != nil {
				return err
			}
			return printJSON(hs)
		},
	}
	cmd.Flags().BoolVar(&disabled, "disabled", false, "list disabled checks instead of enabled ones")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of checks (0 = server default)")
	return cmd
}

func newResultsCmd(registry registryFn) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "results ID",
		Short: "List recent results for a check, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rs, err := registry().ListResults(cmd.Context(), id, limit)
			if err != nil {
				return err
			}
			return printJSON(rs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of results (0 = server default)")
	return cmd
}

func newSummaryCmd(registry registryFn) *cobra.Command {
	var resolution string
	cmd := &cobra.Command{
		Use:   "summary ID",
		Short: "Show pass/fail counts per time window, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			res, err := domain.ParseSummaryResolution(resolution)
			if err != nil {
				return err
			}
			sums, err := registry().SummarizeResults(cmd.Context(), id, res)
			if err != nil {
				return err
			}
			return printJSON(sums)
		},
	}
	cmd.Flags().StringVar(&resolution, "resolution", "minute", "bucket width: second, minute, hour or day")
	return cmd
}

func newCreateCmd(registry registryFn) *cobra.Command {
	var name string
	var interval int
	var disabled bool
	cmd := &cobra.Command{
		Use:   "create ENDPOINT",
		Short: "Register a new check",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := registry().CreateCheck(cmd.Context(), client.CreateCheckRequest{
				Name:     name,
				Endpoint: args[0],
				Interval: interval,
				Enabled:  !disabled,
			})
			if err != nil {
				return err
			}
			return printJSON(h)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "human label")
	cmd.Flags().IntVar(&interval, "interval", 5, "seconds between probes")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "create without scheduling")
	return cmd
}

func newUpdateCmd(registry registryFn) *cobra.Command {
	var name, endpoint string
	var interval int
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change a check's name, endpoint, or interval",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var req client.UpdateCheckRequest
			if cmd.Flags().Changed("name") {
				req.Name = &name
			}
			if cmd.Flags().Changed("endpoint") {
				req.Endpoint = &endpoint
			}
			if cmd.Flags().Changed("interval") {
				req.Interval = &interval
			}
			h, err := registry().UpdateCheck(cmd.Context(), id, req)
			if err != nil {
				return err
			}
			return printJSON(h)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "human label")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "probe target URL")
	cmd.Flags().IntVar(&interval, "interval", 0, "seconds between probes")
	return cmd
}

func newDeleteCmd(registry registryFn) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a check (its result history is kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			h, err := registry().DeleteCheck(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(h)
		},
	}
}

func newEnableCmd(registry registryFn) *cobra.Command {
	return &cobra.Command{
		Use:   "enable ID",
		Short: "Include a check in the schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			h, err := registry().EnableCheck(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(h)
		},
	}
}

func newDisableCmd(registry registryFn) *cobra.Command {
	return &cobra.Command{
		Use:   "disable ID",
		Short: "Remove a check from the schedule without touching history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := registry().DisableCheck(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Println("Ok")
			return nil
		},
	}
}

// newCheckCmd probes an endpoint once, with retries, without registering it.
// Handy for verifying a URL before `checkctl create`.
func newCheckCmd() *cobra.Command {
	var attempts int
	var backoffMS, timeoutSec int
	cmd := &cobra.Command{
		Use:   "check URL",
		Short: "Probe an endpoint once without registering it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chk := &probe.RetryChecker{
				Inner:    probe.NewHTTPChecker(time.Duration(timeoutSec) * time.Second),
				Attempts: attempts,
				Backoff:  time.Duration(backoffMS) * time.Millisecond,
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(attempts*(timeoutSec+1))*time.Second)
			defer cancel()
			out := chk.Check(ctx, args[0])
			if err := printJSON(out); err != nil {
				return err
			}
			if !out.Success {
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&attempts, "attempts", 2, "probe attempts before giving up")
	cmd.Flags().IntVar(&backoffMS, "backoff-ms", 300, "delay between attempts")
	cmd.Flags().IntVar(&timeoutSec, "timeout", 10, "per-attempt timeout in seconds")
	return cmd
}
