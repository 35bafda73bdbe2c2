package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strings"
	"time"
)

type AnyEvent map[string]any

func main() {
	addr := flag.String("addr", "127.0.0.1:7070", "TCP sync server address")
	pretty := flag.Bool("pretty", true, "pretty print JSON events")
	rotations := flag.Bool("rotations", false, "print only rotation events as one line each")
	flag.Parse()

	for {
		if err := run(*addr, *pretty, *rotations); err != nil {
			log.Printf("[sync-client] disconnected: %v", err)
		}
		time.Sleep(1 * time.Second) // auto reconnect
	}
}

func run(addr string, pretty, rotationsOnly bool) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	log.Printf("[sync-client] connected to %s", addr)

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Bytes()

		var obj AnyEvent
		if err := json.Unmarshal(line, &obj); err != nil {
			// not JSON? print raw
			fmt.Println(string(line))
			continue
		}

		if rotationsOnly {
			if obj["type"] == "showcase:rotated" {
				fmt.Println(formatRotation(obj))
			}
			continue
		}
		if !pretty {
			fmt.Println(string(line))
			continue
		}

		b, _ := json.MarshalIndent(obj, "", "  ")
		fmt.Println(string(b))
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return os.ErrClosed
}

func formatRotation(ev AnyEvent) string {
	var idx []string
	if list, ok := ev["indices"].([]any); ok {
		for _, v := range list {
			idx = append(idx, fmt.Sprint(v))
		}
	}
	return fmt.Sprintf("%s rotated -> [%s] every %vms",
		time.Now().Format("15:04:05"), strings.Join(idx, " "), ev["rotateInterval"])
}
