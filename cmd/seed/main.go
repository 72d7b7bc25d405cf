package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/rs/zerolog"

	"github.com/carebridge/healthcare-portal/internal/appointment"
	"github.com/carebridge/healthcare-portal/internal/config"
	"github.com/carebridge/healthcare-portal/internal/db"
	"github.com/carebridge/healthcare-portal/internal/docstore"
	"github.com/carebridge/healthcare-portal/internal/identity"
	"github.com/carebridge/healthcare-portal/internal/medhistory"
	"github.com/carebridge/healthcare-portal/internal/prescription"
	redisclient "github.com/carebridge/healthcare-portal/internal/redis"
	"github.com/carebridge/healthcare-portal/internal/session"
	"github.com/carebridge/healthcare-portal/internal/user"
)

const (
	doctorCount  = 10
	patientCount = 50
	seedPassword = "changeme123"
)

var medications = []string{
	"Lisinopril",
	"Metformin",
	"Atorvastatin",
	"Amoxicillin",
	"Omeprazole",
	"Levothyroxine",
	"Amlodipine",
	"Sertraline",
}

var specializations = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	logger.Info().Msg("seed starting")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var store docstore.Store
	switch cfg.DocstoreBackend {
	case config.BackendPostgres:
		pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect postgres")
		}
		defer pool.Close()
		if err := db.EnsureSchema(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("ensure schema")
		}
		store = docstore.NewPgStore(pool)
	case config.BackendRedis:
		rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect redis")
		}
		defer rdb.Close()
		store = docstore.NewRedisStore(rdb)
	}

	provider := identity.NewStoreProvider(store, []byte(cfg.JWTSecret), cfg.SessionTTL)
	users := user.NewService(store, provider, logger)
	appointments := appointment.NewService(store, logger)
	prescriptions := prescription.NewService(store, logger)
	histories := medhistory.NewService(medhistory.NewRepository(store, logger))

	gofakeit.Seed(time.Now().UnixNano())

	admin, err := users.Create(ctx, session.Context{Role: session.RoleAdmin}, session.RoleAdmin, user.User{
		FirstName: "System",
		LastName:  "Administrator",
	}, "admin@carebridge.local", seedPassword)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed admin")
	}
	adminSess := session.Context{UserID: admin.ID, Role: session.RoleAdmin}

	doctors := make([]*user.User, 0, doctorCount)
	for i := 0; i < doctorCount; i++ {
		d, err := users.Create(ctx, adminSess, session.RoleDoctor, user.User{
			FirstName:      gofakeit.FirstName(),
			LastName:       gofakeit.LastName(),
			Phone:          gofakeit.Phone(),
			Specialization: specializations[gofakeit.Number(0, len(specializations)-1)],
			LicenseNumber:  fmt.Sprintf("MD-%06d", gofakeit.Number(100000, 999999)),
		}, fmt.Sprintf("doctor%d@carebridge.local", i+1), seedPassword)
		if err != nil {
			logger.Fatal().Err(err).Msg("seed doctor")
		}
		doctors = append(doctors, d)
	}

	patients := make([]*user.User, 0, patientCount)
	for i := 0; i < patientCount; i++ {
		p, err := users.Create(ctx, session.Context{}, session.RolePatient, user.User{
			FirstName:        gofakeit.FirstName(),
			LastName:         gofakeit.LastName(),
			Phone:            gofakeit.Phone(),
			DateOfBirth:      gofakeit.DateRange(time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2006, 1, 1, 0, 0, 0, 0, time.UTC)).Format("2006-01-02"),
			Address:          gofakeit.Address().Address,
			EmergencyContact: gofakeit.Phone(),
		}, fmt.Sprintf("patient%d@carebridge.local", i+1), seedPassword)
		if err != nil {
			logger.Fatal().Err(err).Msg("seed patient")
		}
		patients = append(patients, p)
	}

	for _, p := range patients {
		doc := doctors[gofakeit.Number(0, len(doctors)-1)]
		patientSess := session.Context{UserID: p.ID, Role: session.RolePatient}
		doctorSess := session.Context{UserID: doc.ID, Role: session.RoleDoctor}

		_, err := appointments.Create(ctx, patientSess, appointment.CreateInput{
			PatientID: p.ID,
			DoctorID:  doc.ID,
			Date:      gofakeit.FutureDate().Format("2006-01-02"),
			Time:      fmt.Sprintf("%02d:%02d", gofakeit.Number(8, 17), []int{0, 30}[gofakeit.Number(0, 1)]),
			Notes:     gofakeit.Sentence(6),
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("seed appointment")
		}

		if gofakeit.Bool() {
			_, err = prescriptions.Create(ctx, doctorSess, prescription.CreateInput{
				PatientID:      p.ID,
				DoctorName:     "Dr. " + doc.LastName,
				MedicationName: medications[gofakeit.Number(0, len(medications)-1)],
				Dosage:         fmt.Sprintf("%dmg", []int{5, 10, 20, 50}[gofakeit.Number(0, 3)]),
				Frequency:      []string{"once daily", "twice daily", "every 8 hours"}[gofakeit.Number(0, 2)],
				Refills:        gofakeit.Number(0, 3),
			})
			if err != nil {
				logger.Fatal().Err(err).Msg("seed prescription")
			}
		}

		if gofakeit.Bool() {
			_, err = histories.AddItem(ctx, patientSess, p.ID, medhistory.SectionConditions, medhistory.Entry{
				"name":      gofakeit.Word(),
				"diagnosed": gofakeit.PastDate().Format("2006-01-02"),
			})
			if err != nil {
				logger.Fatal().Err(err).Msg("seed medical history")
			}
		}
	}

	logger.Info().Int("doctors", len(doctors)).Int("patients", len(patients)).Msg("seed complete")
}
