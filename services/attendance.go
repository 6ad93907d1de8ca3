package services

import (
	"bytes"
	"fmt"
	"log"
	"path/filepath"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/classattend/attendancebackend/models"
	"github.com/classattend/attendancebackend/repository"
	"github.com/classattend/attendancebackend/utils"
	"github.com/classattend/attendancebackend/vision"
)

// AttendanceService runs the full per-session recognition pipeline: decode,
// enhance, detect, align, gate, embed, match, merge, persist.
type AttendanceService struct {
	sessionRepo     repository.SessionRepositoryInterface
	studentRepo     repository.StudentRepositoryInterface
	unknownFaceRepo repository.UnknownFaceRepositoryInterface

	preprocessor *vision.Preprocessor
	detector     *vision.MultiScaleDetector
	aligner      *vision.FaceAligner
	gate         *vision.QualityGate
	embedder     vision.FaceEmbedder
	cropStore    vision.CropStore
	cropProc     *vision.CropProcessor

	matcher *Matcher
}

// NewAttendanceService wires the pipeline components together
func NewAttendanceService(
	sessionRepo repository.SessionRepositoryInterface,
	studentRepo repository.StudentRepositoryInterface,
	unknownFaceRepo repository.UnknownFaceRepositoryInterface,
	preprocessor *vision.Preprocessor,
	detector *vision.MultiScaleDetector,
	aligner *vision.FaceAligner,
	gate *vision.QualityGate,
	embedder vision.FaceEmbedder,
	cropStore vision.CropStore,
	cropProc *vision.CropProcessor,
	matcher *Matcher,
) *AttendanceService {
	return &AttendanceService{
		sessionRepo:     sessionRepo,
		studentRepo:     studentRepo,
		unknownFaceRepo: unknownFaceRepo,
		preprocessor:    preprocessor,
		detector:        detector,
		aligner:         aligner,
		gate:            gate,
		embedder:        embedder,
		cropStore:       cropStore,
		cropProc:        cropProc,
		matcher:         matcher,
	}
}

// rosterSnapshot reads the unit's active students with their reference
// embeddings once, at the start of the session
func (s *AttendanceService) rosterSnapshot(unitID uint) ([]RosterMember, error) {
	students, err := s.studentRepo.ListActiveByUnitID(unitID)
	if err != nil {
		return nil, fmt.Errorf("roster snapshot failed for unit %d: %w", unitID, err)
	}

	roster := make([]RosterMember, 0, len(students))
	for _, student := range students {
		roster = append(roster, RosterMember{
			StudentID:       student.ID,
			AdmissionNumber: student.AdmissionNumber,
			FullName:        student.FullName,
			Embeddings:      student.ReferenceEmbeddings(),
		})
	}
	return roster, nil
}

// processPhoto runs detection through matching for a single classroom photo
func (s *AttendanceService) processPhoto(photoIndex int, img gocv.Mat, roster []RosterMember) PhotoResult {
	enhanced := s.preprocessor.Enhance(img)
	if enhanced.Ptr() != img.Ptr() {
		defer enhanced.Close()
	}

	detections := s.detector.DetectAll(enhanced)
	log.Printf("attendance: photo %d detected %d faces", photoIndex, len(detections))

	var observations []FaceObservation
	for i, face := range detections {
		aligned, _, err := s.aligner.Align(enhanced, face)
		if err != nil {
			log.Printf("attendance: photo %d face %d alignment failed: %v", photoIndex, i, err)
			continue
		}

		report := s.gate.Check(aligned)
		if !report.Pass() {
			log.Printf("attendance: photo %d face %d rejected by quality gate (sharpness=%.1f brightness=%.1f contrast=%.1f)",
				photoIndex, i, report.Sharpness, report.Brightness, report.Contrast)
			aligned.Close()
			continue
		}

		embedding, err := s.embedder.Embed(aligned)
		aligned.Close()
		if err != nil {
			log.Printf("attendance: photo %d face %d embedding failed: %v", photoIndex, i, err)
			continue
		}

		cropJPEG, err := encodeFaceCrop(enhanced, face.Box)
		if err != nil {
			log.Printf("attendance: photo %d face %d crop encode failed: %v", photoIndex, i, err)
		}

		observations = append(observations, FaceObservation{
			Box:       face.Box,
			Score:     face.Score,
			Embedding: embedding,
			CropJPEG:  cropJPEG,
		})
	}

	return s.matcher.MatchPhoto(photoIndex, observations, roster)
}

// encodeFaceCrop extracts one face region from the photo as JPEG bytes
func encodeFaceCrop(img gocv.Mat, box vision.BoundingBox) ([]byte, error) {
	crop, err := vision.CropRegion(img, box)
	if err != nil {
		return nil, err
	}
	defer crop.Close()
	return vision.EncodeJPEG(crop)
}

// storeUnknownFaces persists each unmatched face crop, its review
// thumbnail, and the database record. Storage failures are per-item and
// do not abort the session.
func (s *AttendanceService) storeUnknownFaces(sessionID string, unknowns []SessionUnknown) {
	for _, unknown := range unknowns {
		if len(unknown.Face.CropJPEG) == 0 {
			continue
		}

		filename := uuid.New().String() + ".jpg"
		cropPath, err := s.cropStore.Save(vision.AssetTypeUnknownFace, filename, bytes.NewReader(unknown.Face.CropJPEG))
		if err != nil {
			log.Printf("attendance: failed to store unknown face crop for session %s: %v", sessionID, err)
			continue
		}

		var thumbPath string
		if s.cropProc != nil {
			thumbPath, err = s.cropProc.GenerateThumbnail(unknown.Face.CropJPEG)
			if err != nil {
				log.Printf("attendance: thumbnail generation failed for %s: %v", filepath.Base(cropPath), err)
			}
		}

		record := &models.UnknownFace{
			SessionID:      sessionID,
			CropPath:       cropPath,
			ThumbnailPath:  thumbPath,
			X1:             unknown.Face.Box.X1,
			Y1:             unknown.Face.Box.Y1,
			X2:             unknown.Face.Box.X2,
			Y2:             unknown.Face.Box.Y2,
			DetectionScore: unknown.Face.Score,
			BestSimilarity: unknown.BestSimilarity,
			PhotoIndex:     unknown.PhotoIndex,
		}
		record.SetEmbedding(unknown.Face.Embedding)
		if err := s.unknownFaceRepo.Create(record); err != nil {
			log.Printf("attendance: failed to persist unknown face for session %s: %v", sessionID, err)
		}
	}
}

// buildRecords converts the merged result into per-student attendance rows
func buildRecords(result SessionResult) []models.AttendanceRecord {
	records := make([]models.AttendanceRecord, 0, len(result.Present)+len(result.AbsentIDs))
	for _, present := range result.Present {
		sim := present.Similarity
		idx := present.PhotoIndex
		records = append(records, models.AttendanceRecord{
			StudentID:  present.StudentID,
			Present:    true,
			Similarity: &sim,
			PhotoIndex: &idx,
		})
	}
	for _, studentID := range result.AbsentIDs {
		records = append(records, models.AttendanceRecord{
			StudentID: studentID,
			Present:   false,
		})
	}
	return records
}

// ProcessSession runs one attendance session end to end. Per-photo and
// per-face failures are absorbed and logged; only unexpected faults mark
// the session failed, and a failed session publishes no counts.
func (s *AttendanceService) ProcessSession(sessionID string, photos []string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("attendance: session %s panicked: %v", sessionID, r)
			if err := s.sessionRepo.SetFailed(sessionID, fmt.Errorf("internal processing error: %v", r)); err != nil {
				log.Printf("attendance: failed to mark session %s failed: %v", sessionID, err)
			}
		}
	}()

	if err := s.sessionRepo.MarkProcessing(sessionID); err != nil {
		log.Printf("attendance: cannot start session %s: %v", sessionID, err)
		return
	}

	session, err := s.sessionRepo.GetByID(sessionID)
	if err != nil {
		s.fail(sessionID, fmt.Errorf("failed to load session: %w", err))
		return
	}

	roster, err := s.rosterSnapshot(session.UnitID)
	if err != nil {
		s.fail(sessionID, err)
		return
	}
	log.Printf("attendance: session %s processing %d photos against roster of %d", sessionID, len(photos), len(roster))

	var results []PhotoResult
	for i, encoded := range photos {
		raw, img, err := vision.DecodeBase64Image(encoded)
		if err != nil {
			log.Printf("attendance: session %s photo %d decode failed, skipping: %v", sessionID, i, err)
			continue
		}

		if session.PhotoTakenAt == nil && session.CameraMake == nil {
			meta := utils.ExtractPhotoMetadata(raw)
			session.PhotoTakenAt = meta.TakenAt
			session.CameraMake = meta.CameraMake
			session.CameraModel = meta.CameraModel
		}

		results = append(results, s.processPhoto(i, img, roster))
		img.Close()
	}

	merged := MergeSession(roster, results)
	s.storeUnknownFaces(sessionID, merged.Unknown)

	session.TotalRegistered = merged.TotalRegistered
	session.PresentCount = len(merged.Present)
	session.AbsentCount = len(merged.AbsentIDs)
	session.UnknownCount = len(merged.Unknown)

	if err := s.sessionRepo.SetCompleted(session, buildRecords(merged)); err != nil {
		s.fail(sessionID, fmt.Errorf("failed to persist session result: %w", err))
		return
	}
	log.Printf("attendance: session %s completed: %d present, %d absent, %d unknown",
		sessionID, session.PresentCount, session.AbsentCount, session.UnknownCount)
}

func (s *AttendanceService) fail(sessionID string, taskErr error) {
	log.Printf("attendance: session %s failed: %v", sessionID, taskErr)
	if err := s.sessionRepo.SetFailed(sessionID, taskErr); err != nil {
		log.Printf("attendance: failed to mark session %s failed: %v", sessionID, err)
	}
}
