package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/nimeshabuddhika/account-service-go/pkg/database"
	"github.com/nimeshabuddhika/account-service-go/pkg/models"
)

// AccountRepository defines the persistence operations for accounts.
// Writes run on an explicit transaction; reads take the pool handle.
type AccountRepository interface {
	// Create inserts a new account and returns the stored row with its assigned id.
	Create(ctx context.Context, tx pgx.Tx, account models.Account) (models.Account, error)
	// FindById returns the account or pgx.ErrNoRows.
	FindById(ctx context.Context, db database.Querier, id int64) (models.Account, error)
	// FindAll returns every account ordered by id.
	FindAll(ctx context.Context, db database.Querier) ([]models.Account, error)
	// Update replaces the mutable fields of an existing account and returns the
	// stored row; id and date_joined never change. Returns pgx.ErrNoRows when absent.
	Update(ctx context.Context, tx pgx.Tx, account models.Account) (models.Account, error)
	// Delete removes the account by id. Returns the number of rows deleted.
	Delete(ctx context.Context, tx pgx.Tx, id int64) (int64, error)
}

type AccountRepositoryImpl struct {
}

func NewAccountRepository() AccountRepository {
	return &AccountRepositoryImpl{}
}

func (a AccountRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, account models.Account) (models.Account, error) {
	var stored models.Account
	err := tx.QueryRow(ctx, `
						INSERT INTO accounts (name, email, address, phone_number, date_joined)
						VALUES ($1, $2, $3, $4, $5)
						RETURNING id, name, email, address, phone_number, date_joined`,
		account.Name,
		account.Email,
		account.Address,
		account.PhoneNumber,
		account.DateJoined,
	).Scan(&stored.ID, &stored.Name, &stored.Email, &stored.Address, &stored.PhoneNumber, &stored.DateJoined)
	return stored, err
}

func (a AccountRepositoryImpl) FindById(ctx context.Context, db database.Querier, id int64) (models.Account, error) {
	var account models.Account
	err := db.QueryRow(ctx, `
						SELECT id, name, email, address, phone_number, date_joined
						FROM accounts WHERE id = $1`, id).Scan(
		&account.ID, &account.Name, &account.Email, &account.Address, &account.PhoneNumber, &account.DateJoined)
	return account, err
}

func (a AccountRepositoryImpl) FindAll(ctx context.Context, db database.Querier) ([]models.Account, error) {
	rows, err := db.Query(ctx, `
						SELECT id, name, email, address, phone_number, date_joined
						FROM accounts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]models.Account, 0)
	for rows.Next() {
		var account models.Account
		if err = rows.Scan(
			&account.ID,
			&account.Name,
			&account.Email,
			&account.Address,
			&account.PhoneNumber,
			&account.DateJoined,
		); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (a AccountRepositoryImpl) Update(ctx context.Context, tx pgx.Tx, account models.Account) (models.Account, error) {
	var stored models.Account
	err := tx.QueryRow(ctx, `
						UPDATE accounts
						SET name = $2, email = $3, address = $4, phone_number = $5
						WHERE id = $1
						RETURNING id, name, email, address, phone_number, date_joined`,
		account.ID,
		account.Name,
		account.Email,
		account.Address,
		account.PhoneNumber,
	).Scan(&stored.ID, &stored.Name, &stored.Email, &stored.Address, &stored.PhoneNumber, &stored.DateJoined)
	return stored, err
}

func (a AccountRepositoryImpl) Delete(ctx context.Context, tx pgx.Tx, id int64) (int64, error) {
	tag, err := tx.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
