// dinocars-admin agrupa las tareas de operador que no pasan por la API:
// migraciones, usuarios y planillas Excel.
package main

import (
	"fmt"
	"os"

	"github.com/NicolasR-dev/dinocars-web/config"
	"github.com/NicolasR-dev/dinocars-web/database"
	"github.com/NicolasR-dev/dinocars-web/models"
	"github.com/NicolasR-dev/dinocars-web/services"
	"github.com/NicolasR-dev/dinocars-web/utils"

	"github.com/urfave/cli/v2"
	"gorm.io/gorm"
)

func main() {
	app := &cli.App{
		Name:  "dinocars-admin",
		Usage: "tareas de operador para DinoCars",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "crea las tablas y el usuario admin por defecto",
				Action: migrate,
			},
			{
				Name:  "reset-password",
				Usage: "reemplaza la contraseña de un usuario",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Required: true},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true},
				},
				Action: resetPassword,
			},
			{
				Name:  "create-user",
				Usage: "crea un usuario",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Required: true},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true},
					&cli.StringFlag{Name: "role", Value: models.RoleWorker},
				},
				Action: createUser,
			},
			{
				Name:      "import-excel",
				Usage:     "importa una planilla histórica de cierres",
				ArgsUsage: "<archivo.xlsx>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "actor", Value: "cli"},
				},
				Action: importExcel,
			},
			{
				Name:      "export-excel",
				Usage:     "exporta los cierres a una planilla",
				ArgsUsage: "<archivo.xlsx>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "month", Usage: "YYYY-MM; vacío exporta todo"},
				},
				Action: exportExcel,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// connect carga la configuración y abre la base ya migrada
func connect() (*config.Config, *gorm.DB, error) {
	cfg := config.LoadConfig()
	if err := utils.InitLogger(cfg.Environment, cfg.LogLevel, cfg.LogFile); err != nil {
		return nil, nil, err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("error al conectar con la base de datos: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = utils.Close()
}

func authService(cfg *config.Config, db *gorm.DB) (*services.AuthService, error) {
	return services.NewAuthService(db, cfg, services.NewMemoryTokenStore())
}

func migrate(c *cli.Context) error {
	cfg, db, err := connect()
	if err != nil {
		return err
	}
	defer closeDB(db)

	if cfg.CreateDefaultAdmin {
		if err := database.EnsureAdminUser(db, cfg); err != nil {
			return err
		}
	}
	fmt.Fprintln(c.App.Writer, "migraciones aplicadas")
	return nil
}

func resetPassword(c *cli.Context) error {
	cfg, db, err := connect()
	if err != nil {
		return err
	}
	defer closeDB(db)

	auth, err := authService(cfg, db)
	if err != nil {
		return err
	}
	username := c.String("username")
	if err := auth.ResetPassword(c.Context, username, c.String("password")); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "contraseña actualizada para %s\n", username)
	return nil
}

func createUser(c *cli.Context) error {
	cfg, db, err := connect()
	if err != nil {
		return err
	}
	defer closeDB(db)

	auth, err := authService(cfg, db)
	if err != nil {
		return err
	}
	user, err := services.NewUserService(db, auth).Create(c.Context, &models.UserCreateRequest{
		Username: c.String("username"),
		Password: c.String("password"),
		Role:     c.String("role"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "usuario %s creado (id %d, rol %s)\n", user.Username, user.ID, user.Role)
	return nil
}

func importExcel(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return cli.Exit("falta el archivo .xlsx", 2)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, db, err := connect()
	if err != nil {
		return err
	}
	defer closeDB(db)

	result, err := services.NewExcelService(db).Import(c.Context, f, c.String("actor"))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "importados: %d, omitidos: %d\n", result.Imported, len(result.Skipped))
	for _, e := range result.Errors {
		fmt.Fprintln(c.App.ErrWriter, e)
	}
	return nil
}

func exportExcel(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return cli.Exit("falta el archivo de destino", 2)
	}

	_, db, err := connect()
	if err != nil {
		return err
	}
	defer closeDB(db)

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := services.NewExcelService(db).Export(c.Context, c.String("month"), out); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "planilla escrita en %s\n", path)
	return nil
}
