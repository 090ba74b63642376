package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// parseYAML parses the specific two-level mapping used by config.yaml
func parseYAML(r io.Reader, cfg *Config) error {
	type section int
	const (
		none section = iota
		db
		rm
		rd
		ws
		sv
		jw
		fr
		mt
	)

	scanner := bufio.NewScanner(r)
	var cur section

	lineNo := 0
	seenTop := map[section]bool{}

	markSeen := func(s section, name string) error {
		if seenTop[s] {
			return fmt.Errorf("line %d: duplicate %q section", lineNo, name)
		}
		seenTop[s] = true
		cur = s
		return nil
	}

	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()

		// strip comments
		if i := strings.IndexByte(raw, '#'); i >= 0 {
			raw = raw[:i]
		}

		line := strings.TrimRight(raw, " \t\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}

		// top-level section? (no leading spaces)
		if len(line) > 0 && (line[0] != ' ' && line[0] != '\t') {
			var err error
			switch strings.TrimSpace(line) {
			case "database:":
				err = markSeen(db, "database")
			case "rabbitmq:":
				err = markSeen(rm, "rabbitmq")
			case "redis:":
				err = markSeen(rd, "redis")
			case "websocket:":
				err = markSeen(ws, "websocket")
			case "services:":
				err = markSeen(sv, "services")
			case "jwt:":
				err = markSeen(jw, "jwt")
			case "fare:":
				err = markSeen(fr, "fare")
			case "matching:":
				err = markSeen(mt, "matching")
			default:
				err = fmt.Errorf("line %d: unknown top-level key %q", lineNo, strings.TrimSuffix(strings.TrimSpace(line), ":"))
			}
			if err != nil {
				return err
			}
			continue
		}

		// expect indented "key: value"
		if cur == none {
			return fmt.Errorf("line %d: key without a section", lineNo)
		}
		trim := strings.TrimSpace(line)
		colon := strings.IndexByte(trim, ':')
		if colon <= 0 {
			return fmt.Errorf("line %d: expected 'key: value'", lineNo)
		}
		key := strings.TrimSpace(trim[:colon])
		val := strings.TrimLeft(strings.TrimSpace(trim[colon+1:]), " \t")

		intVal := func(field string) (int, error) {
			p, err := strconv.Atoi(resolveScalar(val))
			if err != nil {
				return 0, fmt.Errorf("line %d: %s must be int: %v", lineNo, field, err)
			}
			return p, nil
		}
		floatVal := func(field string) (float64, error) {
			f, err := strconv.ParseFloat(resolveScalar(val), 64)
			if err != nil {
				return 0, fmt.Errorf("line %d: %s must be a number: %v", lineNo, field, err)
			}
			return f, nil
		}

		var err error
		switch cur {
		case db:
			switch key {
			case "host":
				cfg.Database.Host = resolveScalar(val)
			case "port":
				cfg.Database.Port, err = intVal("database.port")
			case "user":
				cfg.Database.User = resolveScalar(val)
			case "password":
				cfg.Database.Password = resolveScalar(val)
			case "database":
				cfg.Database.Name = resolveScalar(val)
			default:
				err = fmt.Errorf("line %d: unknown key in database: %q", lineNo, key)
			}
		case rm:
			switch key {
			case "host":
				cfg.RabbitMQ.Host = resolveScalar(val)
			case "port":
				cfg.RabbitMQ.Port, err = intVal("rabbitmq.port")
			case "user":
				cfg.RabbitMQ.User = resolveScalar(val)
			case "password":
				cfg.RabbitMQ.Password = resolveScalar(val)
			default:
				err = fmt.Errorf("line %d: unknown key in rabbitmq: %q", lineNo, key)
			}
		case rd:
			switch key {
			case "host":
				cfg.Redis.Host = resolveScalar(val)
			case "port":
				cfg.Redis.Port, err = intVal("redis.port")
			case "password":
				cfg.Redis.Password = resolveScalar(val)
			case "db":
				cfg.Redis.DB, err = intVal("redis.db")
			default:
				err = fmt.Errorf("line %d: unknown key in redis: %q", lineNo, key)
			}
		case ws:
			switch key {
			case "port":
				cfg.WebSocket.Port, err = intVal("websocket.port")
			default:
				err = fmt.Errorf("line %d: unknown key in websocket: %q", lineNo, key)
			}
		case sv:
			switch key {
			case "dispatch_service":
				cfg.Services.DispatchServicePort, err = intVal("services.dispatch_service")
			default:
				err = fmt.Errorf("line %d: unknown key in services: %q", lineNo, key)
			}
		case jw:
			switch key {
			case "secret_key":
				cfg.JWT.SecretKey = resolveScalar(val)
			default:
				err = fmt.Errorf("line %d: unknown key in jwt: %q", lineNo, key)
			}
		case fr:
			switch key {
			case "rate_per_km":
				cfg.Fare.RatePerKM, err = floatVal("fare.rate_per_km")
			default:
				err = fmt.Errorf("line %d: unknown key in fare: %q", lineNo, key)
			}
		case mt:
			switch key {
			case "strategy":
				cfg.Matching.Strategy = strings.ToLower(resolveScalar(val))
			case "radius_km":
				cfg.Matching.RadiusKM, err = floatVal("matching.radius_km")
			case "limit":
				cfg.Matching.Limit, err = intVal("matching.limit")
			default:
				err = fmt.Errorf("line %d: unknown key in matching: %q", lineNo, key)
			}
		}
		if err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}

	return nil
}

// resolveScalar trims whitespace and removes surrounding quotes from YAML-like scalars.
// For example:
//
//	"localhost"  -> localhost
//	'password123' -> password123
//	localhost     -> localhost
//
// This ensures values like jwt.secret_key are not stored with extra quotes.
func resolveScalar(s string) string {
	s = strings.TrimSpace(s)

	// if value is quoted with "..." or '...', remove quotes safely
	n := len(s)
	if n >= 2 {
		if (s[0] == '"' && s[n-1] == '"') || (s[0] == '\'' && s[n-1] == '\'') {
			if unq, err := strconv.Unquote(s); err == nil {
				return unq
			}
			// fallback if strconv.Unquote fails (e.g., mismatched quotes)
			return s[1 : n-1]
		}
	}

	return s
}
