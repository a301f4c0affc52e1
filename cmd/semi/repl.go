package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"nickandperla.net/semi/internal/stdlib"
	"nickandperla.net/semi/pkg/semi"
)

func printBanner(w io.Writer) {
	fmt.Fprintln(w, "semi REPL (Ctrl+D or :quit to exit)")
	fmt.Fprintln(w, "  :help  language primer")
	fmt.Fprintln(w, "  :vars  declared variables")
	fmt.Fprintln(w, "  :get x value x resolves to")
	fmt.Fprintln(w)
}

// runREPL reads programs line by line. A line ending in a backslash continues
// on the next one. Errors are reported and the session goes on with the
// variables declared so far.
func runREPL(runtime *semi.Runtime, in io.Reader, out *trackingWriter, stdout io.Writer) {
	printBanner(stdout)

	reader := bufio.NewReader(in)
	var multiline strings.Builder
	inMultiline := false

	for {
		if inMultiline {
			fmt.Fprint(stdout, "... ")
		} else {
			fmt.Fprint(stdout, ">>> ")
		}

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(stdout)
			return
		}
		line = strings.TrimRight(line, "\r\n")

		if strings.HasSuffix(line, "\\") {
			multiline.WriteString(strings.TrimSuffix(line, "\\"))
			inMultiline = true
			continue
		}

		input := line
		if inMultiline {
			multiline.WriteString(line)
			input = multiline.String()
			multiline.Reset()
			inMultiline = false
		}

		command := strings.TrimSpace(input)
		switch {
		case command == "":
			continue
		case command == ":quit" || command == ":q":
			return
		case command == ":help":
			fmt.Fprint(stdout, stdlib.Primer)
			fmt.Fprintf(stdout, "\nFunctions: %s\n", strings.Join(semi.Builtins(), ", "))
			continue
		case command == ":vars":
			printVariables(stdout, runtime.Variables())
			continue
		case strings.HasPrefix(command, ":get"):
			name := strings.TrimSpace(strings.TrimPrefix(command, ":get"))
			if v, err := runtime.Lookup(name); err != nil {
				errColor.Fprintf(stdout, "error: %v\n", err)
			} else {
				fmt.Fprintln(stdout, v)
			}
			continue
		}

		out.wrote = false
		if err := runtime.Run(input); err != nil {
			if out.wrote {
				fmt.Fprintln(stdout)
			}
			errColor.Fprintf(stdout, "error: %v\n", err)
			continue
		}
		if out.wrote {
			fmt.Fprintln(stdout)
		}
	}
}

func printVariables(w io.Writer, vars []semi.Variable) {
	if len(vars) == 0 {
		fmt.Fprintln(w, "(no variables)")
		return
	}
	for i, v := range vars {
		fmt.Fprintf(w, "%3d  %s  %-7s  %s\n", i+1, v.Name, v.Type, v.Value)
	}
}
