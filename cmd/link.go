package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hpkotak/giftbud/internal/gift"
	"github.com/hpkotak/giftbud/internal/recommend"
	"github.com/hpkotak/giftbud/internal/render"
)

var (
	linkFromFlag string
	linkAllFlag  bool
)

// refreshNoticeDelay is how long a link lookup may run before the loading
// card is shown.
var refreshNoticeDelay = 300 * time.Millisecond

var linkCmd = &cobra.Command{
	Use:   "link <title>",
	Short: "Find a shopping link for a gift",
	Long: `Look up a shopping link for one gift title.

With --from, the title is looked up in a recommendations file written by
'giftbud --json' and the refreshed link is merged back into that list,
which is printed as JSON. With --all, every storefront link is listed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLink,
}

func init() {
	linkCmd.Flags().StringVar(&linkFromFlag, "from", "", "recommendations JSON file to update")
	linkCmd.Flags().BoolVar(&linkAllFlag, "all", false, "list every storefront that has the gift")
	rootCmd.AddCommand(linkCmd)
}

func runLink(cmd *cobra.Command, args []string) error {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		return fmt.Errorf("title cannot be empty")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := buildService(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(commandContext(cmd), requestTimeout)
	defer cancel()

	if linkAllFlag {
		found := svc.ProductLinks(ctx, title)
		if jsonFlag {
			return render.JSON(ioOut, found)
		}
		_, _ = fmt.Fprintln(ioOut, render.ProductLinks(title, found))
		return nil
	}

	if linkFromFlag == "" {
		rec := refreshWithNotice(ctx, svc, gift.New(title, "", "", ""))
		if jsonFlag {
			return render.JSON(ioOut, rec)
		}
		_, _ = fmt.Fprintln(ioOut, rec.Link)
		return nil
	}

	recs, err := readRecommendations(linkFromFlag)
	if err != nil {
		return err
	}
	var target *gift.Recommendation
	for i := range recs {
		if recs[i].Title == title {
			target = &recs[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("no recommendation titled %q in %s", title, linkFromFlag)
	}

	refreshed := refreshWithNotice(ctx, svc, *target)
	return render.JSON(ioOut, gift.UpdateLink(recs, title, refreshed.Link))
}

// refreshWithNotice runs the refresh and, on a terminal, prints the card in
// its loading state to stderr if the lookup is still in flight after
// refreshNoticeDelay.
func refreshWithNotice(ctx context.Context, svc *recommend.Service, rec gift.Recommendation) gift.Recommendation {
	done := make(chan gift.Recommendation, 1)
	go func() { done <- svc.RefreshLink(ctx, rec) }()

	if jsonFlag || !isInteractive() {
		return <-done
	}

	timer := time.NewTimer(refreshNoticeDelay)
	defer timer.Stop()
	select {
	case out := <-done:
		return out
	case <-timer.C:
		if svc.IsRefreshing(rec.Title) {
			_, _ = fmt.Fprintln(ioErr, render.Card(1, rec, true))
		}
		return <-done
	}
}

func readRecommendations(path string) ([]gift.Recommendation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading recommendations: %w", err)
	}
	var recs []gift.Recommendation
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("parsing recommendations: %w", err)
	}
	return recs, nil
}
