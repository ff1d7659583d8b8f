package main

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"

	getopt "github.com/pborman/getopt/v2"
	"github.com/peterh/liner"
)

var commands = []string{"status", "heartbeat", "debug", "quit", "exit"}

func completer(line string) []string {
	var out []string
	for _, c := range commands {
		if len(line) <= len(c) && c[:len(line)] == line {
			out = append(out, c)
		}
	}
	return out
}

func main() {
	optSocket := getopt.StringLong("socket", 's', "/run/plcrun.sock", "Control-plane socket path")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	conn, err := net.Dial("unix", *optSocket)
	if err != nil {
		fmt.Println("Error: " + err.Error())
		os.Exit(1)
	}
	defer conn.Close()
	reader := bufio.NewReader(conn)

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completer)

	for {
		cmd, err := line.Prompt("plcctl> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				return
			}
			fmt.Println("Error: " + err.Error())
			return
		}
		line.AppendHistory(cmd)

		if cmd == "quit" || cmd == "exit" {
			return
		}
		if cmd == "" {
			continue
		}

		if _, err := fmt.Fprintln(conn, cmd); err != nil {
			fmt.Println("Error: " + err.Error())
			return
		}
		reply, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("Error: " + err.Error())
			return
		}
		fmt.Print(reply)
	}
}
