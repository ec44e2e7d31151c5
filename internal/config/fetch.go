package config

import (
	"context"
	"fmt"
	"os"

	get "github.com/hashicorp/go-getter"
)

// Fetch downloads the config file at src to dst. src takes any go-getter
// address: local paths, http(s) URLs, git::, s3:: and so on. dst must not
// exist yet.
func Fetch(ctx context.Context, src, dst string) error {
	pwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("fetch config: %w", err)
	}
	client := &get.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Pwd:  pwd,
		Mode: get.ClientModeFile,
	}
	if err := client.Get(); err != nil {
		return fmt.Errorf("fetch config %s: %w", src, err)
	}
	return nil
}
