package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/delaneyj/fiberparty/fiber"
	"github.com/delaneyj/fiberparty/memhost"
	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
)

func main() {
	flag.Parse()

	f, err := os.Create("default.pgo")
	if err != nil {
		log.Fatal(err)
	}
	pprof.StartCPUProfile(f)
	defer pprof.StopCPUProfile()

	log.Printf("warming up")

	benchmarkMount(true)
	benchmarkNoOp(true)
	benchmarkReorder(true)
	benchmarkPropChurn(true)
}

var (
	ww    = []int{1, 10, 100}
	hh    = []int{1, 10, 100}
	iters = 100
)

// grid builds w keyed lists of h keyed items each, rev salting the item
// text and a prop so consecutive generations differ.
func grid(w, h, rev int) *fiber.Descriptor {
	lists := make([]any, 0, w)
	for i := 0; i < w; i++ {
		items := make([]any, 0, h)
		for j := 0; j < h; j++ {
			items = append(items, fiber.E("li",
				fmt.Sprintf("%d", j),
				fiber.Props{"data": rev},
				fmt.Sprintf("item %d.%d rev %d", i, j, rev),
			))
		}
		lists = append(lists, fiber.E("ul", fmt.Sprintf("%d", i), nil, items...))
	}
	return fiber.E("div", "", fiber.Props{"id": "app"}, lists...)
}

// reversed is grid with every list's items in reverse key order, forcing
// the reconciler through its keyed-map path on every list.
func reversed(w, h, rev int) *fiber.Descriptor {
	lists := make([]any, 0, w)
	for i := 0; i < w; i++ {
		items := make([]any, 0, h)
		for j := h - 1; j >= 0; j-- {
			items = append(items, fiber.E("li",
				fmt.Sprintf("%d", j),
				fiber.Props{"data": rev},
				fmt.Sprintf("item %d.%d rev %d", i, j, rev),
			))
		}
		lists = append(lists, fiber.E("ul", fmt.Sprintf("%d", i), nil, items...))
	}
	return fiber.E("div", "", fiber.Props{"id": "app"}, lists...)
}

func nodeCount(w, h int) string {
	// div + w lists + w*h items + w*h texts
	return humanize.Comma(int64(1 + w + 2*w*h))
}

func mustRender(e *fiber.Engine) {
	if err := e.RenderSync(); err != nil {
		log.Panic(err)
	}
}

func benchmarkMount(shouldRender bool) {
	tbl := table.NewWriter()
	tbl.SetTitle("Mount")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "nodes", "avg", "min", "p75", "p99", "max"})

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			for i := 0; i < iters; i++ {
				host := memhost.New()
				e := fiber.NewEngine(host, host.Container())
				e.ScheduleUpdate(grid(w, h, 0), fiber.DefaultLane)

				start := time.Now()
				mustRender(e)
				tach.AddTime(time.Since(start))
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("mount: %d * %d", w, h),
					nodeCount(w, h),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})
		}
	}

	if shouldRender {
		tbl.Render()
	}
}

func benchmarkNoOp(shouldRender bool) {
	tbl := table.NewWriter()
	tbl.SetTitle("No-op re-render")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "nodes", "avg", "min", "p75", "p99", "max"})

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			host := memhost.New()
			e := fiber.NewEngine(host, host.Container())
			e.ScheduleUpdate(grid(w, h, 0), fiber.DefaultLane)
			mustRender(e)

			for i := 0; i < iters; i++ {
				e.ScheduleUpdate(grid(w, h, 0), fiber.DefaultLane)

				start := time.Now()
				mustRender(e)
				tach.AddTime(time.Since(start))
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("noop: %d * %d", w, h),
					nodeCount(w, h),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})
		}
	}

	if shouldRender {
		tbl.Render()
	}
}

func benchmarkReorder(shouldRender bool) {
	tbl := table.NewWriter()
	tbl.SetTitle("Full reorder")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "nodes", "avg", "min", "p75", "p99", "max"})

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			host := memhost.New()
			e := fiber.NewEngine(host, host.Container())
			e.ScheduleUpdate(grid(w, h, 0), fiber.DefaultLane)
			mustRender(e)

			for i := 0; i < iters; i++ {
				if i%2 == 0 {
					e.ScheduleUpdate(reversed(w, h, 0), fiber.DefaultLane)
				} else {
					e.ScheduleUpdate(grid(w, h, 0), fiber.DefaultLane)
				}

				start := time.Now()
				mustRender(e)
				tach.AddTime(time.Since(start))
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("reorder: %d * %d", w, h),
					nodeCount(w, h),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})
		}
	}

	if shouldRender {
		tbl.Render()
	}
}

func benchmarkPropChurn(shouldRender bool) {
	tbl := table.NewWriter()
	tbl.SetTitle("Prop churn")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "nodes", "avg", "min", "p75", "p99", "max"})

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			host := memhost.New()
			e := fiber.NewEngine(host, host.Container())
			e.ScheduleUpdate(grid(w, h, 0), fiber.DefaultLane)
			mustRender(e)

			for i := 0; i < iters; i++ {
				e.ScheduleUpdate(grid(w, h, i+1), fiber.DefaultLane)

				start := time.Now()
				mustRender(e)
				tach.AddTime(time.Since(start))
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("churn: %d * %d", w, h),
					nodeCount(w, h),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})
		}
	}

	if shouldRender {
		tbl.Render()
	}
}
