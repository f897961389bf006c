package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/bayleafwalker/licensetree/internal/checkservice"
	"github.com/bayleafwalker/licensetree/internal/manifest"
)

func main() {
	var target string
	var manifestPath string
	var concurrency int
	var rounds int
	var timeout time.Duration

	flag.StringVar(&target, "target", "127.0.0.1:50051", "gRPC server address")
	flag.StringVar(&manifestPath, "manifest", "", "package.manifest whose packages are checked; packages may also be given as arguments")
	flag.IntVar(&concurrency, "concurrency", 8, "Number of concurrent callers")
	flag.IntVar(&rounds, "rounds", 1, "Number of times every package is checked")
	flag.DurationVar(&timeout, "timeout", time.Minute, "Timeout of a single call")
	flag.Parse()

	packages := flag.Args()
	if manifestPath != "" {
		entries, err := manifest.ParseFile(manifestPath)
		if err != nil {
			log.Fatalf("Error reading manifest: %v", err)
		}
		checked, _ := manifest.Filter(entries, manifest.DefaultSkipPrefixes)
		packages = append(packages, manifest.Packages(checked)...)
	}
	if len(packages) == 0 {
		log.Fatalf("No packages to check: pass -manifest or package names")
	}

	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("Error dialing %s: %v", target, err)
	}
	defer conn.Close()
	c := checkservice.NewClient(conn)

	total := len(packages) * rounds
	fmt.Printf("Starting load test: %d checks against %s with %d callers\n", total, target, concurrency)

	work := make(chan string)
	latencies := make(chan time.Duration, total)
	var failed, errored sync.Map

	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pkg := range work {
				ctx, cancel := context.WithTimeout(context.Background(), timeout)
				callStart := time.Now()
				resp, err := c.CheckPackage(ctx, pkg)
				cancel()
				if err != nil {
					errored.Store(pkg, err)
					fmt.Printf("Error checking %s: %v\n", pkg, err)
					continue
				}
				latencies <- time.Since(callStart)
				if !resp.Passed {
					failed.Store(pkg, struct{}{})
				}
			}
		}()
	}
	for r := 0; r < rounds; r++ {
		for _, pkg := range packages {
			work <- pkg
		}
	}
	close(work)

	wg.Wait()
	close(latencies)
	totalDuration := time.Since(start)

	var totalLatency, maxLatency time.Duration
	count := 0
	for l := range latencies {
		totalLatency += l
		if l > maxLatency {
			maxLatency = l
		}
		count++
	}

	failedCount := 0
	failed.Range(func(key, _ any) bool {
		failedCount++
		fmt.Printf("No suitable license: %s\n", key)
		return true
	})

	erroredCount := 0
	errored.Range(func(_, _ any) bool {
		erroredCount++
		return true
	})
	if erroredCount > 0 {
		fmt.Printf("%d packages could not be checked\n", erroredCount)
	}

	if count > 0 {
		avgLatency := totalLatency / time.Duration(count)
		fmt.Printf("Load test completed in %v. %d calls, avg latency %v, max %v, %d failing packages\n",
			totalDuration, count, avgLatency, maxLatency, failedCount)
	} else {
		fmt.Printf("Load test completed in %v. No call succeeded.\n", totalDuration)
	}
}
