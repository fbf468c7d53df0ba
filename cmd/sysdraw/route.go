package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sysdraw/sysdraw/backend-go/internal/document"
	"github.com/sysdraw/sysdraw/backend-go/internal/route"
)

func routeCmd() *cobra.Command {
	var (
		from, to         string
		fromSide, toSide string
		connType         string
	)
	cmd := &cobra.Command{
		Use:   "route",
		Short: "Print the routed path between two rectangles",
		Example: `  sysdraw route --from 0,0,120,80 --to 300,200,120,80 --type dependency
  sysdraw route --from 0,0,120,80 --to 300,0,120,80 --from-side bottom --to-side bottom`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := parseRect("from", from)
			if err != nil {
				return err
			}
			b, err := parseRect("to", to)
			if err != nil {
				return err
			}
			t := document.ConnectionType(connType)
			if !t.Known() {
				return fmt.Errorf("unknown connection type %q", connType)
			}
			fs, ts := document.OptimalAnchors(a, b)
			if fromSide != "" {
				fs = document.Side(fromSide)
			}
			if toSide != "" {
				ts = document.Side(toSide)
			}
			routed := route.Compute(a, b, document.NewConnection("", a.Name, fs, b.Name, ts, t))
			data, err := json.MarshalIndent(routed, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "0,0,120,80", "source rectangle as x,y,w,h")
	cmd.Flags().StringVar(&to, "to", "300,200,120,80", "target rectangle as x,y,w,h")
	cmd.Flags().StringVar(&fromSide, "from-side", "", "source anchor side (default: optimal)")
	cmd.Flags().StringVar(&toSide, "to-side", "", "target anchor side (default: optimal)")
	cmd.Flags().StringVar(&connType, "type", string(document.DefaultConnectionType), "connection type")
	return cmd
}

func parseRect(name, s string) (document.Shape, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return document.Shape{}, fmt.Errorf("--%s: want x,y,w,h, got %q", name, s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return document.Shape{}, fmt.Errorf("--%s: %w", name, err)
		}
		v[i] = f
	}
	if v[2] <= 0 || v[3] <= 0 {
		return document.Shape{}, fmt.Errorf("--%s: width and height must be positive", name)
	}
	s0 := document.NewShape(name, document.KindRectangle, v[0], v[1], 0)
	s0.Width, s0.Height = v[2], v[3]
	return s0, nil
}
