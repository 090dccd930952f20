package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"voicetriage/pkg"
)

// Repository wraps the read-only lookups against the patient registry and
// the hospital resource inventory. A single postgres database backs both.
type Repository struct {
	DB *sql.DB
}

// NewRepository constructs a new Repository from an existing sql.DB.
// The caller is responsible for managing the DB connection lifecycle.
func NewRepository(db *sql.DB) *Repository { return &Repository{DB: db} }

// FindPatient looks up a patient record by name, narrowed by age when one
// was extracted. A missing record is a normal outcome and returns nil, nil.
func (r *Repository) FindPatient(ctx context.Context, name string, age *int) (*pkg.PatientRecord, error) {
	var (
		rec pkg.PatientRecord
		err error
	)
	if age != nil {
		err = r.DB.QueryRowContext(ctx,
			`SELECT name, age, medical_history, allergies
             FROM patients
             WHERE name = $1 AND age = $2
             LIMIT 1`, name, *age,
		).Scan(&rec.Name, &rec.Age, &rec.MedicalHistory, &rec.Allergies)
	} else {
		err = r.DB.QueryRowContext(ctx,
			`SELECT name, age, medical_history, allergies
             FROM patients
             WHERE name = $1
             LIMIT 1`, name,
		).Scan(&rec.Name, &rec.Age, &rec.MedicalHistory, &rec.Allergies)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find patient: %w", err)
	}
	return &rec, nil
}

// ListHospitalResources returns every hospital annotated with its
// positive-stock blood plasma and medication rows. The two inventories are
// independent reads, so counts are only point-in-time accurate.
func (r *Repository) ListHospitalResources(ctx context.Context) ([]pkg.HospitalResource, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, name, address, latitude, longitude
         FROM hospitals
         ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list hospitals: %w", err)
	}
	defer rows.Close()

	var hospitals []pkg.HospitalResource
	for rows.Next() {
		var h pkg.HospitalResource
		if err := rows.Scan(&h.ID, &h.Name, &h.Address, &h.Latitude, &h.Longitude); err != nil {
			return nil, err
		}
		hospitals = append(hospitals, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range hospitals {
		blood, err := r.bloodPlasmaForHospital(ctx, hospitals[i].ID)
		if err != nil {
			return nil, err
		}
		hospitals[i].BloodPlasma = blood

		meds, err := r.medicationsForHospital(ctx, hospitals[i].ID)
		if err != nil {
			return nil, err
		}
		hospitals[i].Medications = meds
	}
	return hospitals, nil
}

func (r *Repository) bloodPlasmaForHospital(ctx context.Context, hospitalID string) ([]pkg.BloodPlasma, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT blood_type, volume, stock, expiration
         FROM blood_plasma
         WHERE hospital_id = $1 AND stock > 0
         ORDER BY stock DESC`, hospitalID)
	if err != nil {
		return nil, fmt.Errorf("blood plasma for %s: %w", hospitalID, err)
	}
	defer rows.Close()

	var out []pkg.BloodPlasma
	for rows.Next() {
		var b pkg.BloodPlasma
		if err := rows.Scan(&b.Type, &b.Volume, &b.Stock, &b.Expiration); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repository) medicationsForHospital(ctx context.Context, hospitalID string) ([]pkg.Medication, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT name, med_type, dosage, stock
         FROM medications
         WHERE hospital_id = $1 AND stock > 0
         ORDER BY stock DESC`, hospitalID)
	if err != nil {
		return nil, fmt.Errorf("medications for %s: %w", hospitalID, err)
	}
	defer rows.Close()

	var out []pkg.Medication
	for rows.Next() {
		var m pkg.Medication
		if err := rows.Scan(&m.Name, &m.Type, &m.Dosage, &m.Stock); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
