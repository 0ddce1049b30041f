package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/go-sql-driver/mysql"
)

var defaultPorts = map[string]int{
	"postgres": 5432,
	"mysql":    3306,
	"mssql":    1433,
}

// ResolveDSN returns s.DSN when set. Otherwise it assembles a DSN for s.Kind
// from the discrete params (host, port, dbname, user, password, sslmode), the
// same shape as a psycopg-style connection file.
func (s Source) ResolveDSN() (string, error) {
	if s.DSN != "" {
		return s.DSN, nil
	}
	p := s.Params
	db := p.String("dbname", "")
	if s.Kind == "sqlite" {
		if db == "" {
			return "", fmt.Errorf("source: sqlite needs dsn or params.dbname")
		}
		return db, nil
	}
	host := p.String("host", "")
	if host == "" {
		return "", fmt.Errorf("source: dsn or params.host is required")
	}
	port := p.Int("port", defaultPorts[s.Kind])
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	user, pass := p.String("user", ""), p.String("password", "")

	switch s.Kind {
	case "postgres":
		u := url.URL{Scheme: "postgres", Host: addr, Path: "/" + db}
		if user != "" {
			u.User = url.UserPassword(user, pass)
		}
		if mode := p.String("sslmode", ""); mode != "" {
			u.RawQuery = url.Values{"sslmode": {mode}}.Encode()
		}
		return u.String(), nil
	case "mysql":
		mc := mysql.NewConfig()
		mc.Net = "tcp"
		mc.Addr = addr
		mc.User = user
		mc.Passwd = pass
		mc.DBName = db
		return mc.FormatDSN(), nil
	case "mssql":
		u := url.URL{Scheme: "sqlserver", Host: addr}
		if user != "" {
			u.User = url.UserPassword(user, pass)
		}
		if db != "" {
			u.RawQuery = url.Values{"database": {db}}.Encode()
		}
		return u.String(), nil
	default:
		return "", fmt.Errorf("source: cannot build a dsn for kind %q", s.Kind)
	}
}
