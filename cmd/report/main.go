package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"order_datagen/internal/progress"
	"order_datagen/internal/report"
	rediskey "order_datagen/pkg/redis"
)

// envelope 状态服务统一的响应结构
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func main() {
	baseURL := flag.String("base", "http://localhost:9090", "status server base url")
	runID := flag.String("run", "", "run id to look up in redis (default: the server's current run)")
	limit := flag.Int("limit", report.DefaultLimit, "rows in product/shop rankings")
	history := flag.Int("history", 0, "also list the N most recent runs recorded in redis")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}
	c := &statusClient{http: client, base: *baseURL}

	if err := printRun(os.Stdout, c, *runID); err != nil {
		fmt.Fprintln(os.Stderr, "run:", err)
	}
	if *history > 0 {
		if err := printHistory(os.Stdout, c, *history); err != nil {
			fmt.Fprintln(os.Stderr, "history:", err)
		}
	}
	if err := printStats(os.Stdout, c, *limit); err != nil {
		fmt.Fprintln(os.Stderr, "stats:", err)
		os.Exit(1)
	}
}

type statusClient struct {
	http *http.Client
	base string
}

// get 请求并解出 data 字段，非 2xx 或 code != 0 视为错误。
func (c *statusClient) get(path string, out any) error {
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(b))
	}
	if resp.StatusCode >= 300 || env.Code != 0 {
		return fmt.Errorf("status=%d msg=%s", resp.StatusCode, env.Msg)
	}
	return json.Unmarshal(env.Data, out)
}

func printRun(w io.Writer, c *statusClient, runID string) error {
	if runID != "" {
		var st rediskey.RunState
		if err := c.get("/api/run/"+runID, &st); err != nil {
			return err
		}
		fmt.Fprintf(w, "run %s [%s] sink=%s\n", st.RunID, st.Status, st.Sink)
		fmt.Fprintf(w, "  enqueued %d / %d, orders %d, items %d, batches %d (failed %d), worker errors %d\n",
			st.Enqueued, st.Total, st.Orders, st.Items, st.Batches, st.FailedBatches, st.WorkerErrors)
		if st.Reason != "" {
			fmt.Fprintf(w, "  reason: %s\n", st.Reason)
		}
		return nil
	}

	var s progress.Snapshot
	if err := c.get("/api/run", &s); err != nil {
		return err
	}
	fmt.Fprintf(w, "run %s [%s] %.0fs elapsed, %.0f orders/s\n", s.RunID, s.Status, s.ElapsedSec, s.OrdersPerSec)
	fmt.Fprintf(w, "  enqueued %d / %d, orders %d, items %d, batches %d (failed %d), workers active %d\n",
		s.Enqueued, s.Total, s.Orders, s.Items, s.Batches, s.FailedBatches, s.WorkersActive)
	if s.LastError != "" {
		fmt.Fprintf(w, "  last error: %s\n", s.LastError)
	}
	return nil
}

func printHistory(w io.Writer, c *statusClient, n int) error {
	var runs []rediskey.RunState
	if err := c.get(fmt.Sprintf("/api/runs?limit=%d", n), &runs); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nRUN\tSTATUS\tSINK\tSTARTED\tORDERS\tFAILED BATCHES")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\t%d\n",
			r.RunID, r.Status, r.Sink, r.StartedAt.Format(time.DateTime), r.Orders, r.Total, r.FailedBatches)
	}
	return tw.Flush()
}

func printStats(w io.Writer, c *statusClient, limit int) error {
	var totals report.Totals
	if err := c.get("/api/stats/totals", &totals); err != nil {
		return err
	}
	fmt.Fprintf(w, "\ntables: order_addr=%d order=%d order_item=%d\n", totals.Addrs, totals.Orders, totals.Items)

	var status []report.StatusStat
	if err := c.get("/api/stats/status", &status); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nSTATUS\tORDERS\tAMOUNT")
	for _, s := range status {
		fmt.Fprintf(tw, "%d\t%d\t%s\n", s.Status, s.Orders, yuan(s.Amount))
	}
	tw.Flush()

	var regions []report.RegionStat
	if err := c.get("/api/stats/regions", &regions); err != nil {
		return err
	}
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nPROVINCE\tID\tORDERS")
	for _, r := range regions {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", r.Province, r.ProvinceID, r.Orders)
	}
	tw.Flush()

	var products []report.ProductStat
	if err := c.get(fmt.Sprintf("/api/stats/products?limit=%d", limit), &products); err != nil {
		return err
	}
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nSPU\tNAME\tQUANTITY\tAMOUNT")
	for _, p := range products {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", p.SpuID, p.SpuName, p.Quantity, yuan(p.Amount))
	}
	tw.Flush()

	var shops []report.ShopStat
	if err := c.get(fmt.Sprintf("/api/stats/shops?limit=%d", limit), &shops); err != nil {
		return err
	}
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nSHOP\tNAME\tORDERS\tAMOUNT")
	for _, s := range shops {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", s.ShopID, s.ShopName, s.Orders, yuan(s.Amount))
	}
	return tw.Flush()
}

// yuan 金额按分存储
func yuan(fen int64) string {
	return fmt.Sprintf("%d.%02d", fen/100, fen%100)
}
