package mongorepos

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/studentrecords/core/student"
)

type studentDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	StudentID      string             `bson:"studentId"`
	FirstName      string             `bson:"firstName"`
	LastName       string             `bson:"lastName"`
	Email          string             `bson:"email"`
	DOB            time.Time          `bson:"dob"`
	Department     string             `bson:"department"`
	EnrollmentYear int                `bson:"enrollmentYear"`
	IsActive       bool               `bson:"isActive"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

func newStudentDocument(s student.Student) studentDocument {
	doc := studentDocument{
		StudentID:      s.StudentID,
		FirstName:      s.FirstName,
		LastName:       s.LastName,
		Email:          s.Email,
		DOB:            s.DOB.Time,
		Department:     s.Department,
		EnrollmentYear: s.EnrollmentYear,
		IsActive:       s.IsActive,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
	if oid, err := primitive.ObjectIDFromHex(s.ID); err == nil {
		doc.ID = oid
	}
	return doc
}

func (doc studentDocument) toStudent() student.Student {
	return student.Student{
		ID:             doc.ID.Hex(),
		StudentID:      doc.StudentID,
		FirstName:      doc.FirstName,
		LastName:       doc.LastName,
		Email:          doc.Email,
		DOB:            student.NewDate(doc.DOB.UTC()),
		Department:     doc.Department,
		EnrollmentYear: doc.EnrollmentYear,
		IsActive:       doc.IsActive,
		CreatedAt:      doc.CreatedAt.UTC(),
		UpdatedAt:      doc.UpdatedAt.UTC(),
	}
}

type studentRepository struct {
	coll *mongo.Collection
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *mongo.Database) student.Repository {
	return &studentRepository{coll: db.Collection(studentCollection)}
}

// objectID parses a hex id; malformed ids are reported as not found.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, student.ErrNotFound
	}
	return oid, nil
}

// duplicateKeyError translates a unique index violation into the matching student error.
func duplicateKeyError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, studentIDIndex), strings.Contains(msg, "studentId:"):
		return student.ErrStudentIDExists
	case strings.Contains(msg, emailIndex), strings.Contains(msg, "email:"):
		return student.ErrEmailExists
	}
	return err
}

func (repo *studentRepository) CheckUniqueness(ctx context.Context, studentID, email string, excludedIDs ...string) error {
	or := make(bson.A, 0, 2)
	if studentID != "" {
		or = append(or, bson.M{"studentId": studentID})
	}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if len(or) == 0 {
		return nil
	}

	filter := bson.M{"$or": or}
	if len(excludedIDs) > 0 {
		oids := make(bson.A, 0, len(excludedIDs))
		for _, id := range excludedIDs {
			if oid, err := primitive.ObjectIDFromHex(id); err == nil {
				oids = append(oids, oid)
			}
		}
		filter["_id"] = bson.M{"$nin": oids}
	}

	var doc studentDocument
	err := repo.coll.FindOne(ctx, filter).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil
	case err != nil:
		return errors.Wrap(err, "finding conflicting student")
	case studentID != "" && doc.StudentID == studentID:
		return student.ErrStudentIDExists
	default:
		return student.ErrEmailExists
	}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	doc := newStudentDocument(s)
	doc.ID = primitive.NewObjectID()
	if _, err := repo.coll.InsertOne(ctx, doc); err != nil {
		return student.Student{}, duplicateKeyError(err)
	}
	return doc.toStudent(), nil
}

func (repo *studentRepository) QueryAllStudents(ctx context.Context) ([]student.Student, error) {
	cur, err := repo.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, errors.Wrap(err, "finding students")
	}
	var docs []studentDocument
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding students")
	}

	students := make([]student.Student, 0, len(docs))
	for _, doc := range docs {
		students = append(students, doc.toStudent())
	}
	return students, nil
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	oid, err := objectID(id)
	if err != nil {
		return student.Student{}, err
	}

	var doc studentDocument
	if err = repo.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "finding student")
	}
	return doc.toStudent(), nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	oid, err := objectID(s.ID)
	if err != nil {
		return student.Student{}, err
	}

	update := bson.M{"$set": bson.M{
		"studentId":      s.StudentID,
		"firstName":      s.FirstName,
		"lastName":       s.LastName,
		"email":          s.Email,
		"dob":            s.DOB.Time,
		"department":     s.Department,
		"enrollmentYear": s.EnrollmentYear,
		"isActive":       s.IsActive,
		"updatedAt":      s.UpdatedAt,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc studentDocument
	if err = repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, duplicateKeyError(err)
	}
	return doc.toStudent(), nil
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := repo.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	if res.DeletedCount == 0 {
		return student.ErrNotFound
	}
	return nil
}
