package database

import (
	"career_path_backend/internal/catalog"
	"career_path_backend/internal/config"
	"career_path_backend/internal/model"
	"errors"
	"fmt"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
			cfg.ParseTime,
		)
		return mysql.Open(dsn), nil
	case "postgres":
		sslMode := cfg.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode)
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func InitDB(cfg *config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	level := logger.Warn
	if debug {
		level = logger.Info
	}

	db, err := Open(d, logger.Default.LogMode(level))
	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")
	return db, nil
}

// Open 打开连接并开启错误翻译，唯一键冲突统一为 gorm.ErrDuplicatedKey
func Open(d gorm.Dialector, l logger.Interface) (*gorm.DB, error) {
	return gorm.Open(d, &gorm.Config{
		Logger:         l,
		TranslateError: true,
	})
}

// Migrate 建表并按内置目录初始化路线
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.CareerSession{},
		&model.CareerAnswer{},
		&model.CareerResult{},
		&model.Roadmap{},
		&model.RoadmapStepState{},
		&model.RoadmapAssessment{},
		&model.AssessmentAttempt{},
	)
	if err != nil {
		return err
	}

	cat, err := catalog.LoadRoadmaps()
	if err != nil {
		return err
	}
	if err := SeedRoadmaps(db, cat); err != nil {
		return err
	}

	log.Println("Database migration completed")
	return nil
}

// SeedRoadmaps 已存在的路线跳过，只补齐缺失的
func SeedRoadmaps(db *gorm.DB, cat *catalog.Catalog) error {
	for _, r := range cat.Roadmaps {
		var existing model.Roadmap
		err := db.Where("career_name = ?", r.Career).First(&existing).Error
		if err == nil {
			if existing.TotalSteps != len(r.Steps) {
				if err := db.Model(&existing).Update("total_steps", len(r.Steps)).Error; err != nil {
					return err
				}
			}
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		roadmap := &model.Roadmap{
			CareerName:  r.Career,
			Title:       r.Title,
			Description: r.Description,
			TotalSteps:  len(r.Steps),
		}
		if err := db.Create(roadmap).Error; err != nil {
			return err
		}
	}
	return nil
}
