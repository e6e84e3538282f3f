package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/mvtheara/satcore/internal/dimacs"
	"github.com/mvtheara/satcore/internal/sat"
)

var flagCPUProfile = flag.Bool(
	"cpuprof",
	false,
	"save pprof CPU profile in cpuprof",
)

var flagMemProfile = flag.Bool(
	"memprof",
	false,
	"save pprof memory profile in memprof",
)

var flagGzip = flag.Bool(
	"gzip",
	false,
	"the instance file is gzip-compressed",
)

var flagMaxConflicts = flag.Int64(
	"max-conflicts",
	-1,
	"stop and report unknown after this many conflicts (-1: unbounded)",
)

var flagTimeout = flag.Duration(
	"timeout",
	-1,
	"stop and report unknown after this much wall time (-1: unbounded)",
)

func parseConfig() (*config, error) {
	flag.Parse()

	if flag.NArg() == 0 || flag.Arg(0) == "" {
		return nil, fmt.Errorf("missing instance file")
	}
	return &config{
		instanceFile: flag.Arg(0),
		gzipped:      *flagGzip,
		memProfile:   *flagMemProfile,
		cpuProfile:   *flagCPUProfile,
		maxConflicts: *flagMaxConflicts,
		timeout:      *flagTimeout,
	}, nil
}

type config struct {
	instanceFile string
	gzipped      bool
	memProfile   bool
	cpuProfile   bool
	maxConflicts int64
	timeout      time.Duration
}

func run(cfg *config) error {
	opts := sat.DefaultOptions
	opts.MaxConflicts = cfg.maxConflicts
	opts.Timeout = cfg.timeout
	s := sat.NewSolver(opts)

	if err := dimacs.LoadDIMACS(cfg.instanceFile, cfg.gzipped, s); err != nil {
		return fmt.Errorf("could not load instance: %s", err)
	}

	fmt.Printf("c variables:  %d\n", s.NumVariables())

	t := time.Now()
	status, err := s.Solve(nil)
	elapsed := time.Since(t)
	if err != nil {
		return fmt.Errorf("solve failed: %w", err)
	}

	fmt.Printf("c time (sec): %f\n", elapsed.Seconds())
	fmt.Printf("c conflicts:  %d (%.2f /sec)\n", s.TotalConflicts, float64(s.TotalConflicts)/elapsed.Seconds())
	fmt.Printf("c restarts:   %d\n", s.TotalRestarts)
	fmt.Printf("c status:     %s\n", status.String())

	if status == sat.True {
		model := s.Model()
		for v, val := range model {
			sign := ""
			if !val {
				sign = "-"
			}
			fmt.Printf("v %s%d", sign, v+1)
		}
		fmt.Println(" 0")
	}

	return nil
}

func main() {
	cfg, err := parseConfig()
	if err != nil {
		log.Fatal(err)
	}

	if cfg.cpuProfile {
		f, err := os.Create("cpuprof")
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}

	if cfg.memProfile {
		f, err := os.Create("memprof")
		if err != nil {
			log.Fatal(err)
		}
		pprof.WriteHeapProfile(f)
		f.Close()
		return
	}
}
