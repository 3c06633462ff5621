package store

import "database/sql"

// Credentials is the singleton account row described in the persisted
// state layout: username/password for authentication, plus the session
// artifacts the remote client needs to skip re-authenticating on every
// restart.
type Credentials struct {
	Username       string
	Password       string
	DefaultQuality int
	UserToken      string
	AppID          string
	ActiveSecret   string
}

// GetCredentials returns the singleton config row, or a zero Credentials
// if nothing has been saved yet.
func (s *Store) GetCredentials() (Credentials, error) {
	var c Credentials
	var username, password, userToken, appID, activeSecret sql.NullString
	var quality sql.NullInt64

	row := s.db.QueryRow(`
		SELECT username, password, default_quality, user_token, app_id, active_secret
		FROM config WHERE id = 1
	`)
	err := row.Scan(&username, &password, &quality, &userToken, &appID, &activeSecret)
	if err == sql.ErrNoRows {
		return Credentials{}, nil
	}
	if err != nil {
		return Credentials{}, err
	}

	c.Username = username.String
	c.Password = password.String
	c.DefaultQuality = int(quality.Int64)
	c.UserToken = userToken.String
	c.AppID = appID.String
	c.ActiveSecret = activeSecret.String
	return c, nil
}

// SetCredentials upserts the singleton config row, preserving whatever
// volume was previously saved.
func (s *Store) SetCredentials(c Credentials) error {
	_, err := s.db.Exec(`
		INSERT INTO config (id, username, password, default_quality, user_token, app_id, active_secret)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username        = excluded.username,
			password        = excluded.password,
			default_quality = excluded.default_quality,
			user_token      = excluded.user_token,
			app_id          = excluded.app_id,
			active_secret   = excluded.active_secret
	`, c.Username, c.Password, c.DefaultQuality, c.UserToken, c.AppID, c.ActiveSecret)
	return err
}

// SetUserToken persists just the session token the remote client obtained
// from its last successful login, leaving the rest of the row untouched.
func (s *Store) SetUserToken(token string) error {
	_, err := s.db.Exec(`
		INSERT INTO config (id, user_token) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET user_token = excluded.user_token
	`, token)
	return err
}
