package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/microblog/internal/admin"
)

func main() {
	if err := admin.Run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, admin.ErrUsage) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
