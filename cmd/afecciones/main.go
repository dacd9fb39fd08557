package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iberiaforestal/afecciones-carm/internal/catastro"
	"github.com/iberiaforestal/afecciones-carm/internal/config"
	"github.com/iberiaforestal/afecciones-carm/internal/geo"
	"github.com/iberiaforestal/afecciones-carm/internal/informe"
	"github.com/iberiaforestal/afecciones-carm/internal/logger"
	"github.com/iberiaforestal/afecciones-carm/internal/observability"
	"github.com/iberiaforestal/afecciones-carm/internal/server"
)

var Version = "dev"

var (
	flagConfig   string
	flagLogLevel string
	flagConsole  bool
)

func loadConfig() (config.Config, error) {
	cfg := config.FromEnv()
	if flagConfig != "" {
		var err error
		cfg, err = config.ApplyFile(cfg, flagConfig)
		if err != nil {
			return cfg, err
		}
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	return cfg, nil
}

func buildLogger(cfg config.Config) zerolog.Logger {
	return logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   flagConsole,
		Component: "afecciones",
	}, os.Stdout)
}

var rootCmd = &cobra.Command{
	Use:     "afecciones",
	Short:   "Informe preliminar de afecciones forestales de la Región de Murcia",
	Version: Version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Arranca el servicio HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := buildLogger(cfg)
		observability.ExposeBuildInfo(Version)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log.Info().Str("addr", cfg.Addr).Str("version", Version).
			Str("geoserver", cfg.GeoServerURL).Msg("arrancando afecciones")
		return server.Run(ctx, cfg, &log)
	},
}

var (
	flagX, flagY                             string
	flagMunicipio, flagPoligono, flagParcela string
	flagNombre, flagApellidos, flagDNI       string
	flagDireccion, flagTelefono, flagEmail   string
	flagObjeto                               string
)

var informeCmd = &cobra.Command{
	Use:   "informe",
	Short: "Evalúa todas las capas para un punto o parcela y escribe el informe en JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := buildLogger(cfg)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		p, err := server.NewPipeline(ctx, cfg, &log)
		if err != nil {
			return err
		}

		loc, geom, err := resolveSpot(ctx, p)
		if err != nil {
			return err
		}

		sol := informe.Solicitante{
			Nombre: flagNombre, Apellidos: flagApellidos, DNI: flagDNI,
			Direccion: flagDireccion, Telefono: flagTelefono, Email: flagEmail,
			Objeto: flagObjeto,
		}
		resultados := p.Agg.EvaluateAll(ctx, geom)
		inf := informe.Build(time.Now(), sol, loc, geom, p.Catalogo, resultados)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(inf)
	},
}

func resolveSpot(ctx context.Context, p *server.Pipeline) (informe.Localizacion, orb.Geometry, error) {
	var loc informe.Localizacion

	if flagMunicipio != "" {
		h, err := p.Resolver.Lookup(ctx, flagMunicipio, flagPoligono, flagParcela)
		if err != nil {
			return loc, nil, err
		}
		ctr, _ := planar.CentroidArea(h.Geom)
		lon, lat := p.Tr.ToLonLat(ctr[0], ctr[1])
		return informe.Localizacion{
			Municipio: h.Municipio, Poligono: h.Masa, Parcela: h.Parcela,
			X: ctr[0], Y: ctr[1], Lon: lon, Lat: lat,
		}, h.Geom, nil
	}

	x, err := geo.ParseCoord("X", flagX)
	if err != nil {
		return loc, nil, err
	}
	y, err := geo.ParseCoord("Y", flagY)
	if err != nil {
		return loc, nil, err
	}
	lon, lat, err := p.Tr.Transform(x, y)
	if err != nil {
		return loc, nil, err
	}
	loc = informe.Localizacion{X: x, Y: y, Lon: lon, Lat: lat}

	h, err := p.Resolver.FindContaining(ctx, x, y)
	if err != nil {
		if !errors.Is(err, catastro.ErrNoEncontrada) {
			return loc, nil, err
		}
		loc.Municipio, loc.Poligono, loc.Parcela = "N/A", "N/A", "N/A"
		return loc, orb.Point{x, y}, nil
	}
	loc.Municipio, loc.Poligono, loc.Parcela = h.Municipio, h.Masa, h.Parcela
	return loc, h.Geom, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "ruta de un fichero YAML de configuración")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "nivel de log (debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&flagConsole, "console", false, "salida de log legible en consola")

	informeCmd.Flags().StringVar(&flagX, "x", "", "coordenada X ETRS89 UTM 30")
	informeCmd.Flags().StringVar(&flagY, "y", "", "coordenada Y ETRS89 UTM 30")
	informeCmd.Flags().StringVar(&flagMunicipio, "municipio", "", "municipio catastral")
	informeCmd.Flags().StringVar(&flagPoligono, "poligono", "", "número de polígono")
	informeCmd.Flags().StringVar(&flagParcela, "parcela", "", "número de parcela")
	informeCmd.Flags().StringVar(&flagNombre, "nombre", "", "nombre del solicitante")
	informeCmd.Flags().StringVar(&flagApellidos, "apellidos", "", "apellidos del solicitante")
	informeCmd.Flags().StringVar(&flagDNI, "dni", "", "DNI del solicitante")
	informeCmd.Flags().StringVar(&flagDireccion, "direccion", "", "dirección del solicitante")
	informeCmd.Flags().StringVar(&flagTelefono, "telefono", "", "teléfono del solicitante")
	informeCmd.Flags().StringVar(&flagEmail, "email", "", "email del solicitante")
	informeCmd.Flags().StringVar(&flagObjeto, "objeto", "", "objeto de la solicitud")

	rootCmd.AddCommand(serveCmd, informeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
