package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
	"github.com/dogeorg/wifiinfo/pkg/format"
)

// byLevel orders records strongest first, then by SSID.
func byLevel(records []wifiinfo.ScanRecord) []wifiinfo.ScanRecord {
	out := make([]wifiinfo.ScanRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level > out[j].Level
		}
		return out[i].SSID < out[j].SSID
	})
	return out
}

func writeTable(w io.Writer, records []wifiinfo.ScanRecord, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SSID\tBSSID\tRSSI\tCH\tFREQ\tWIDTH\tSTANDARD\tSECURITY\tLAST SEEN")
	for _, r := range byLevel(records) {
		seen := format.NotAvailable
		if r.LastSeen != nil {
			seen = format.DurationString(now.Sub(*r.LastSeen))
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\t%s\t%s\t%s\t%s\n",
			format.SSID(r),
			r.BSSID,
			r.Level,
			format.Int(r.Channel),
			r.Frequency,
			format.ChannelWidth(r.ChannelWidth),
			format.Standard(r.Standard),
			r.Capabilities,
			seen,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d access points\n", len(records))
	return err
}

func writeDetails(w io.Writer, fields []format.Field) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, f := range fields {
		fmt.Fprintf(tw, "%s:\t%s\n", f.Label, f.Value)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
