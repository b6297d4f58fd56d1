// 演示配置加载与热更新。
package main

import (
	"fmt"
	"log"

	"github.com/lgc202/odsc-go/config"
)

func main() {
	loader, err := config.Load("client.yaml")
	if err != nil {
		log.Fatal(err)
	}

	loader.OnChange(func(old, new config.ClientConfig) {
		fmt.Printf("endpoint changed: %s -> %s\n", old.Endpoint, new.Endpoint)
	})

	cfg := loader.Get()
	fmt.Printf("endpoint=%s streaming=%v max_retries=%d timeout=%s\n",
		cfg.Endpoint, cfg.Streaming, cfg.MaxRetries, cfg.Timeout)

	select {}
}
