package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/gopu-inc/gsql/pkg/engine"
	"github.com/gopu-inc/gsql/pkg/logging"
	"github.com/gopu-inc/gsql/pkg/parser"
	"github.com/gopu-inc/gsql/pkg/statements"
	"github.com/gopu-inc/gsql/pkg/ui"
)

type Configuration struct {
	DataDir      string
	LogPath      string
	LogLevel     string
	PoolCapacity int
	ExecuteQuery string
}

func main() {
	config := parseArguments()

	if err := initializeLogging(config); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Close()

	eng, err := engine.Open(engine.Config{
		DataDir:      config.DataDir,
		PoolCapacity: config.PoolCapacity,
	})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer eng.Close()

	if config.ExecuteQuery != "" {
		if err := runQueries(eng, config.ExecuteQuery); err != nil {
			log.Fatalf("Query failed: %v", err)
		}
		return
	}

	if err := ui.Run(eng); err != nil {
		log.Fatalf("Failed to start UI: %v", err)
	}
}

func parseArguments() Configuration {
	var config Configuration

	flag.StringVar(&config.DataDir, "data", "./data", "Data directory path")
	flag.StringVar(&config.LogPath, "log", "", "Log file path (stderr when empty)")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.IntVar(&config.PoolCapacity, "pool", 0, "Buffer pool capacity in pages (0 for default)")
	flag.StringVar(&config.ExecuteQuery, "exec", "", "Execute the given statements and exit")
	flag.Parse()

	return config
}

func initializeLogging(config Configuration) error {
	return logging.Init(logging.Config{
		Level:      logging.LogLevel(strings.ToUpper(config.LogLevel)),
		OutputPath: config.LogPath,
	})
}

// runQueries executes semicolon-separated statements non-interactively
// and prints each result to stdout.
func runQueries(eng *engine.Engine, input string) error {
	p := &parser.Parser{}
	for _, sql := range strings.Split(input, ";") {
		if strings.TrimSpace(sql) == "" {
			continue
		}
		stmt, err := p.ParseStatement(sql)
		if err != nil {
			return err
		}
		result, err := eng.Execute(stmt)
		if err != nil {
			return err
		}
		printResult(result)
	}
	return nil
}

func printResult(result *statements.QueryResult) {
	switch result.Kind {
	case statements.SelectResult:
		fmt.Println(strings.Join(result.Columns, "\t"))
		for _, row := range result.Rows {
			cells := make([]string, len(row.Fields()))
			for i, field := range row.Fields() {
				cells[i] = field.String()
			}
			fmt.Println(strings.Join(cells, "\t"))
		}
		fmt.Printf("%d row(s)\n", len(result.Rows))
	case statements.InsertResult:
		fmt.Printf("inserted %d row(s)\n", result.RowsAffected)
	case statements.DeleteResult:
		fmt.Printf("deleted %d row(s)\n", result.RowsAffected)
	case statements.CreateResult:
		fmt.Printf("table %s created\n", result.Table)
	default:
		fmt.Println("ok")
	}
}
