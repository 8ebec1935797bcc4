package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	database "cloud.google.com/go/spanner/admin/database/apiv1"
	databasepb "cloud.google.com/go/spanner/admin/database/apiv1/databasepb"
	instance "cloud.google.com/go/spanner/admin/instance/apiv1"
	instancepb "cloud.google.com/go/spanner/admin/instance/apiv1/instancepb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/murkotick/product-projections/internal/config"
	"github.com/murkotick/product-projections/internal/pkg/logx"
)

// A small migration helper that applies a DDL file to a Cloud Spanner
// database (typically the emulator for local dev). Against the emulator it
// also creates the instance and the database when they are missing.
//
// Usage (emulator):
//
//	export SPANNER_EMULATOR_HOST=localhost:9010
//	export SPANNER_DATABASE=projects/test-project/instances/emulator-instance/databases/test-db
//	go run ./cmd/migrate -ddl migrations/001_initial_schema.sql
func main() {
	ddlPath := flag.String("ddl", "migrations/001_initial_schema.sql", "DDL file to apply")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logx.New("migrate", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := migrate(ctx, cfg, *ddlPath, logger); err != nil {
		logger.Error("migration failed", "err", err)
		os.Exit(1)
	}
}

func migrate(ctx context.Context, cfg config.Config, ddlPath string, logger *slog.Logger) error {
	stmts, err := readDDLStatements(ddlPath)
	if err != nil {
		return fmt.Errorf("read DDL: %w", err)
	}
	if len(stmts) == 0 {
		return fmt.Errorf("no DDL statements found in %s", ddlPath)
	}

	project, inst, db, err := parseDatabaseName(cfg.SpannerDatabase)
	if err != nil {
		return err
	}

	if cfg.SpannerEmulatorHost != "" {
		if err := ensureInstance(ctx, project, inst); err != nil {
			return err
		}
	}

	admin, err := database.NewDatabaseAdminClient(ctx)
	if err != nil {
		return fmt.Errorf("database admin client: %w", err)
	}
	defer admin.Close()

	if cfg.SpannerEmulatorHost != "" {
		created, err := ensureDatabase(ctx, admin, project, inst, db, stmts)
		if err != nil {
			return err
		}
		if created {
			logger.Info("database created", "database", cfg.SpannerDatabase, "statements", len(stmts))
			return nil
		}
	}

	op, err := admin.UpdateDatabaseDdl(ctx, &databasepb.UpdateDatabaseDdlRequest{
		Database:   cfg.SpannerDatabase,
		Statements: stmts,
	})
	if err != nil {
		return fmt.Errorf("UpdateDatabaseDdl: %w", err)
	}
	if err := op.Wait(ctx); err != nil {
		return fmt.Errorf("UpdateDatabaseDdl wait: %w", err)
	}

	logger.Info("DDL applied", "database", cfg.SpannerDatabase, "statements", len(stmts))
	return nil
}

func ensureInstance(ctx context.Context, project, inst string) error {
	admin, err := instance.NewInstanceAdminClient(ctx)
	if err != nil {
		return fmt.Errorf("instance admin client: %w", err)
	}
	defer admin.Close()

	op, err := admin.CreateInstance(ctx, &instancepb.CreateInstanceRequest{
		Parent:     "projects/" + project,
		InstanceId: inst,
		Instance: &instancepb.Instance{
			Config:      "projects/" + project + "/instanceConfigs/emulator-config",
			DisplayName: inst,
			NodeCount:   1,
		},
	})
	if status.Code(err) == codes.AlreadyExists {
		return nil
	}
	if err != nil {
		return fmt.Errorf("CreateInstance: %w", err)
	}
	if _, err := op.Wait(ctx); err != nil {
		return fmt.Errorf("CreateInstance wait: %w", err)
	}
	return nil
}

// ensureDatabase creates the database with stmts as its schema. It reports
// false when the database already exists.
func ensureDatabase(ctx context.Context, admin *database.DatabaseAdminClient, project, inst, db string, stmts []string) (bool, error) {
	op, err := admin.CreateDatabase(ctx, &databasepb.CreateDatabaseRequest{
		Parent:          "projects/" + project + "/instances/" + inst,
		CreateStatement: "CREATE DATABASE `" + db + "`",
		ExtraStatements: stmts,
	})
	if status.Code(err) == codes.AlreadyExists {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("CreateDatabase: %w", err)
	}
	if _, err := op.Wait(ctx); err != nil {
		return false, fmt.Errorf("CreateDatabase wait: %w", err)
	}
	return true, nil
}

// parseDatabaseName splits projects/P/instances/I/databases/D.
func parseDatabaseName(name string) (project, inst, db string, err error) {
	parts := strings.Split(name, "/")
	if len(parts) != 6 || parts[0] != "projects" || parts[2] != "instances" || parts[4] != "databases" {
		return "", "", "", errors.New("SPANNER_DATABASE must look like projects/P/instances/I/databases/D")
	}
	return parts[1], parts[3], parts[5], nil
}

func readDDLStatements(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	// Normalize line endings for Windows-authored files.
	sql := strings.ReplaceAll(string(b), "\r\n", "\n")

	var out []string
	for _, p := range strings.Split(sql, ";") {
		stmt := strings.TrimSpace(stripComments(p))
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out, nil
}

// stripComments drops "--" line comments, which the admin API rejects.
func stripComments(stmt string) string {
	lines := strings.Split(stmt, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if i := strings.Index(l, "--"); i >= 0 {
			l = l[:i]
		}
		if strings.TrimSpace(l) != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}
