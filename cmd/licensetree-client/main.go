package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/bayleafwalker/licensetree/internal/checkservice"
)

func main() {
	var target string
	var pkg string
	var timeout time.Duration
	flag.StringVar(&target, "target", "127.0.0.1:50051", "gRPC server address")
	flag.StringVar(&pkg, "package", "busybox", "package to check")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "call timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		panic(fmt.Errorf("dial %s: %w", target, err))
	}
	defer conn.Close()

	c := checkservice.NewClient(conn)

	resp, err := c.CheckPackage(ctx, pkg)
	if err != nil {
		fmt.Printf("CheckPackage error: %v\n", err)
		os.Exit(2)
	}

	if resp.Passed {
		fmt.Printf("CheckPackage ok: package=%s licenses=[%s]\n", resp.Package, strings.Join(resp.Licenses, ", "))
		return
	}
	fmt.Printf("CheckPackage failed: package=%s has no suitable license\n%s", resp.Package, resp.Tree)
	for _, f := range resp.LookupFailures {
		fmt.Printf("lookup failure: %s\n", f)
	}
	os.Exit(1)
}
