package main

import (
	"context"
	"fmt"
	"os"

	"github.com/graphtide/neohttp/client"
	"github.com/graphtide/neohttp/protocol"
)

const version = "0.3.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "run":
		handleRun(os.Args[2:])
	case "version", "-v", "--version":
		fmt.Printf("neohttp v%s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		printError(fmt.Sprintf("Unknown command: %s", command))
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(colorBold(colorCyan("neohttp CLI")) + " - Run Cypher over the Neo4j transactional HTTP API\n")
	fmt.Println("Usage:")
	fmt.Println("  neohttp " + colorYellow("<command>") + " [arguments]\n")
	fmt.Println("Commands:")
	fmt.Println("  " + colorGreen("run") + " <cypher>  Execute one statement and print the result table")
	fmt.Println("  " + colorGreen("version") + "       Show version information")
	fmt.Println("  " + colorGreen("help") + "          Show this help message\n")
	fmt.Println("Environment Variables:")
	fmt.Println("  NEOHTTP_URL        Server root URI (default: http://localhost:7474)")
	fmt.Println("  NEOHTTP_DATABASE   Logical database name (default: neo4j)")
	fmt.Println("  NEOHTTP_LOG_LEVEL  Log level: DEBUG, INFO, WARN, ERROR (default: WARN)")
}

func handleRun(args []string) {
	if len(args) < 1 {
		printError("run requires a Cypher statement")
		os.Exit(1)
	}
	statement := args[0]

	opts := client.DefaultOptions()
	if url := os.Getenv("NEOHTTP_URL"); url != "" {
		opts.RootURI = url
	}
	if db := os.Getenv("NEOHTTP_DATABASE"); db != "" {
		opts.Database = db
	}
	opts.LogLevel = "WARN"
	if level := os.Getenv("NEOHTTP_LOG_LEVEL"); level != "" {
		opts.LogLevel = level
	}

	c := client.NewClient(&opts)
	defer c.Close()

	results, err := c.Run(context.Background(), statement, nil, "cli")
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}

	for _, result := range results {
		printResult(result)
		if result.Stats != nil && result.Stats.ContainsUpdates {
			printSuccess(fmt.Sprintf("%d nodes created, %d relationships created, %d properties set",
				result.Stats.NodesCreated,
				result.Stats.RelationshipsCreated,
				result.Stats.PropertiesSet))
		}
	}
}

func printResult(result protocol.Result) {
	if len(result.Columns) == 0 {
		fmt.Println(colorDim("(no columns)"))
		return
	}

	rows := make([][]string, 0, result.Len())
	for i := 0; i < result.Len(); i++ {
		record := result.Record(i)
		row := make([]string, len(result.Columns))
		for j, column := range result.Columns {
			value, ok := record.Get(column)
			if !ok || value == nil {
				row[j] = colorDim("null")
				continue
			}
			row[j] = fmt.Sprintf("%v", value)
		}
		rows = append(rows, row)
	}

	printTable(result.Columns, rows)
	fmt.Println(colorDim(fmt.Sprintf("%d row(s)", result.Len())))
}
