package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/couchcryptid/stellaview/internal/domain"
	"github.com/couchcryptid/stellaview/internal/pipeline"
)

func printRecommendation(w io.Writer, origin string, rec pipeline.Recommendation, loc *time.Location) {
	fmt.Fprintf(w, "From %s on %s\n", origin, rec.Date.Format("Mon Jan 2"))
	if rec.Tonight != nil {
		win := rec.Tonight.Window
		fmt.Fprintf(w, "Dark from %s to %s, moon %.0f%% lit\n",
			win.Start.In(loc).Format(time.Kitchen), win.End.In(loc).Format(time.Kitchen),
			rec.Tonight.Moon.Illumination*100)
		printSites(w, rec.Tonight.Sites, loc)
	}
	if rec.Outlook != nil && len(rec.Outlook.Sites) > 0 {
		fmt.Fprintf(w, "\nBest night this week: %s\n", rec.Outlook.Date.Format("Monday, Jan 2"))
		printSites(w, rec.Outlook.Sites, loc)
	}
	fmt.Fprintf(w, "\n%s\n", rec.Message)
}

func printOutlook(w io.Writer, origin string, out pipeline.Outlook, loc *time.Location) {
	fmt.Fprintf(w, "From %s\n", origin)
	if len(out.Sites) == 0 {
		fmt.Fprintf(w, "No good nights this week. %s\n", out.TopFailure.Message())
		return
	}
	fmt.Fprintf(w, "Best night: %s\n", out.Date.Format("Monday, Jan 2"))
	printSites(w, out.Sites, loc)
}

func printSites(w io.Writer, sites []domain.EvaluationResult, loc *time.Location) {
	if len(sites) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tSITE\tBORTLE\tCLOUDS\tDRIVE\tLEAVE BY\tDIRECTIONS")
	for _, s := range sites {
		drive := fmt.Sprintf("%.0f min", s.TravelMinutes)
		if s.TravelSource == domain.TravelEstimated {
			drive = "~" + drive
		}
		fmt.Fprintf(tw, "%.0f\t%s\t%.1f\t%.0f%%\t%s\t%s\t%s\n",
			s.Score, s.Site.Name, s.Bortle, s.AvgCloudCover, drive,
			s.LeaveBy.In(loc).Format(time.Kitchen), s.DirectionsURL)
	}
	tw.Flush()
}
