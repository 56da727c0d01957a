package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldsync/fieldsync/internal/config"
	"github.com/fieldsync/fieldsync/internal/geo"
	"github.com/fieldsync/fieldsync/internal/jobs"
)

// RegionCmd computes the map viewport covering today's job locations.
func RegionCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "region",
		Short: "Fit a map viewport over today's jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			if _, err := app.RequireSession(cmd.Context()); err != nil {
				return err
			}

			list, err := app.Syncer.FetchJobs(cmd.Context(), jobs.Filter{
				Date: time.Now().Format("2006-01-02"),
			})
			if err != nil {
				return fmt.Errorf("failed to load today's jobs: %w", err)
			}

			var points []geo.LatLng
			for _, j := range list {
				if j.Location.HasCoordinates() {
					points = append(points, geo.LatLng{Lat: *j.Location.Lat, Lng: *j.Location.Lng})
				}
			}

			var focal *geo.LatLng
			if raw, _ := cmd.Flags().GetString("focal"); raw != "" {
				focal, err = parseLatLng(raw)
				if err != nil {
					return err
				}
			}

			region, err := geo.FitRegion(points, focal)
			if err != nil {
				return fmt.Errorf("nothing to fit: %w", err)
			}

			fmt.Printf("Center: %.4f, %.4f\n", region.CenterLat, region.CenterLng)
			fmt.Printf("Span:   %.4f x %.4f\n", region.SpanLat, region.SpanLng)
			fmt.Printf("Jobs with coordinates: %d\n", len(points))
			return nil
		},
	}
	cmd.Flags().String("focal", "", "Focal point to include, as lat,lng")
	return cmd
}

func parseLatLng(raw string) (*geo.LatLng, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid coordinate %q, expected lat,lng", raw)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude in %q: %w", raw, err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude in %q: %w", raw, err)
	}

	return &geo.LatLng{Lat: lat, Lng: lng}, nil
}
