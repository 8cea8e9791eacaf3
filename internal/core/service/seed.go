package service

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/squadron/asset-verification/internal/core/domain"
	"github.com/squadron/asset-verification/internal/core/ports"
)

//go:embed seed_users.yaml
var defaultSeed []byte

// SeedUser is one account entry of a seed file.
type SeedUser struct {
	Username   string      `yaml:"username"`
	Password   string      `yaml:"password"`
	Role       domain.Role `yaml:"role"`
	Name       string      `yaml:"name"`
	Email      string      `yaml:"email"`
	Phone      string      `yaml:"phone"`
	Department string      `yaml:"department"`
	EmployeeID string      `yaml:"employee_id"`
	Avatar     string      `yaml:"avatar"`
}

// SeedFile is the on-disk shape of the user seed.
type SeedFile struct {
	Users      []SeedUser             `yaml:"users"`
	DemoLogins map[domain.Role]string `yaml:"demo_logins"`
}

// LoadSeed reads the seed at path, or the built-in demo seed when path is empty.
func LoadSeed(path string) (*SeedFile, error) {
	data := defaultSeed
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read seed file: %w", err)
		}
		data = b
	}

	var sf SeedFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sf); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return &sf, nil
}

// SeedUsers inserts every seed account that does not exist yet and returns
// how many were created. Existing accounts are left as they are.
func SeedUsers(ctx context.Context, repo ports.UserRepository, sf *SeedFile, cost int, log zerolog.Logger) (int, error) {
	cost = normalizeCost(cost)
	created := 0

	for _, su := range sf.Users {
		if su.Username == "" || su.Password == "" {
			continue
		}
		if !su.Role.Valid() {
			log.Warn().Str("username", su.Username).Str("role", su.Role.String()).Msg("skipping seed user with unknown role")
			continue
		}

		if _, err := repo.FindByUsername(ctx, su.Username); err == nil {
			continue
		} else if !errors.Is(err, domain.ErrUserNotFound) {
			return created, fmt.Errorf("seed %s: %w", su.Username, err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(su.Password), cost)
		if err != nil {
			return created, fmt.Errorf("seed %s: hash password: %w", su.Username, err)
		}

		_, err = repo.Create(ctx, &domain.User{
			Username:     su.Username,
			PasswordHash: string(hash),
			Name:         su.Name,
			Role:         su.Role,
			Email:        su.Email,
			Phone:        su.Phone,
			Department:   su.Department,
			EmployeeID:   su.EmployeeID,
			Avatar:       su.Avatar,
			CreatedAt:    time.Now().UTC(),
		})
		if err != nil {
			if errors.Is(err, domain.ErrUserExists) {
				continue
			}
			return created, fmt.Errorf("seed %s: %w", su.Username, err)
		}
		created++
	}

	log.Info().Int("created", created).Int("total", len(sf.Users)).Msg("user seed applied")
	return created, nil
}
