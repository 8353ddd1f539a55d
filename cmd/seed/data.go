package main

import "github.com/jwalitptl/clinic-rbac/internal/policy"

const demoPassword = "pass@123"

type demoUser struct {
	username, email, fullName, phone string
	role                             policy.Role
}

type demoAppointment struct {
	patient, doctor string
	date            string
	reason, status  string
	notes           string
}

type demoRecord struct {
	patient, doctor                string
	diagnosis, prescription, notes string
	visitDate                      string
}

var demoUsers = []demoUser{
	{"admin1", "admin1@hospital.com", "Sarah Johnson", "555-0101", policy.RoleAdministrator},
	{"admin2", "admin2@hospital.com", "Michael Chen", "555-0102", policy.RoleAdministrator},
	{"admin3", "admin3@hospital.com", "Emily Davis", "555-0103", policy.RoleAdministrator},

	{"doctor1", "doctor1@hospital.com", "Dr. James Wilson", "555-0201", policy.RoleDoctor},
	{"doctor2", "doctor2@hospital.com", "Dr. Lisa Anderson", "555-0202", policy.RoleDoctor},
	{"doctor3", "doctor3@hospital.com", "Dr. Robert Martinez", "555-0203", policy.RoleDoctor},
	{"doctor4", "doctor4@hospital.com", "Dr. Jennifer Taylor", "555-0204", policy.RoleDoctor},
	{"doctor5", "doctor5@hospital.com", "Dr. David Brown", "555-0205", policy.RoleDoctor},
	{"doctor6", "doctor6@hospital.com", "Dr. Amanda White", "555-0206", policy.RoleDoctor},
	{"doctor7", "doctor7@hospital.com", "Dr. Christopher Lee", "555-0207", policy.RoleDoctor},
	{"doctor8", "doctor8@hospital.com", "Dr. Maria Garcia", "555-0208", policy.RoleDoctor},

	{"nurse1", "nurse1@hospital.com", "Nancy Thompson", "555-0301", policy.RoleNurse},
	{"nurse2", "nurse2@hospital.com", "Patricia Moore", "555-0302", policy.RoleNurse},
	{"nurse3", "nurse3@hospital.com", "Linda Jackson", "555-0303", policy.RoleNurse},
	{"nurse4", "nurse4@hospital.com", "Barbara Harris", "555-0304", policy.RoleNurse},
	{"nurse5", "nurse5@hospital.com", "Susan Clark", "555-0305", policy.RoleNurse},
	{"nurse6", "nurse6@hospital.com", "Jessica Lewis", "555-0306", policy.RoleNurse},
	{"nurse7", "nurse7@hospital.com", "Michelle Walker", "555-0307", policy.RoleNurse},

	{"patient1", "patient1@email.com", "John Smith", "555-1001", policy.RolePatient},
	{"patient2", "patient2@email.com", "Mary Johnson", "555-1002", policy.RolePatient},
	{"patient3", "patient3@email.com", "William Brown", "555-1003", policy.RolePatient},
	{"patient4", "patient4@email.com", "Patricia Jones", "555-1004", policy.RolePatient},
	{"patient5", "patient5@email.com", "Robert Davis", "555-1005", policy.RolePatient},
	{"patient6", "patient6@email.com", "Jennifer Miller", "555-1006", policy.RolePatient},
	{"patient7", "patient7@email.com", "Michael Wilson", "555-1007", policy.RolePatient},
	{"patient8", "patient8@email.com", "Linda Moore", "555-1008", policy.RolePatient},
	{"patient9", "patient9@email.com", "David Taylor", "555-1009", policy.RolePatient},
	{"patient10", "patient10@email.com", "Barbara Anderson", "555-1010", policy.RolePatient},
	{"patient11", "patient11@email.com", "Richard Thomas", "555-1011", policy.RolePatient},
	{"patient12", "patient12@email.com", "Susan Jackson", "555-1012", policy.RolePatient},
	{"patient13", "patient13@email.com", "Joseph White", "555-1013", policy.RolePatient},
	{"patient14", "patient14@email.com", "Jessica Harris", "555-1014", policy.RolePatient},
	{"patient15", "patient15@email.com", "Thomas Martin", "555-1015", policy.RolePatient},
}

var demoAppointments = []demoAppointment{
	{"patient1", "doctor1", "2025-12-15T09:00:00Z", "Annual physical examination", "scheduled", ""},
	{"patient2", "doctor2", "2025-12-15T10:30:00Z", "Follow-up consultation", "scheduled", ""},
	{"patient3", "doctor3", "2025-12-16T14:00:00Z", "Diabetes management review", "scheduled", ""},
	{"patient4", "doctor4", "2025-12-17T11:00:00Z", "Hypertension check-up", "scheduled", ""},
	{"patient5", "doctor5", "2025-12-18T15:30:00Z", "Respiratory infection symptoms", "scheduled", ""},
	{"patient6", "doctor6", "2025-12-19T09:30:00Z", "Allergy consultation", "scheduled", ""},
	{"patient7", "doctor7", "2025-12-20T13:00:00Z", "Skin rash examination", "scheduled", ""},
	{"patient8", "doctor8", "2025-12-21T10:00:00Z", "General health check-up", "scheduled", ""},

	{"patient1", "doctor1", "2025-11-01T09:00:00Z", "Initial consultation", "completed", "Patient in good health"},
	{"patient2", "doctor2", "2025-11-05T14:00:00Z", "Blood pressure monitoring", "completed", "BP normal, continue medication"},
	{"patient3", "doctor3", "2025-11-10T11:30:00Z", "Lab results review", "completed", "All tests normal"},
	{"patient4", "doctor4", "2025-11-12T10:00:00Z", "Medication adjustment", "completed", "Dosage increased"},
	{"patient5", "doctor5", "2025-11-15T15:00:00Z", "Flu symptoms", "completed", "Prescribed antibiotics"},
	{"patient6", "doctor6", "2025-11-18T09:00:00Z", "Chest pain evaluation", "completed", "ECG normal, anxiety related"},
	{"patient7", "doctor7", "2025-11-20T13:30:00Z", "Back pain assessment", "completed", "Physical therapy recommended"},
	{"patient8", "doctor8", "2025-11-22T11:00:00Z", "Headache consultation", "completed", "Migraine diagnosis"},
	{"patient9", "doctor1", "2025-11-25T14:30:00Z", "Routine check-up", "completed", "Healthy, no concerns"},
	{"patient10", "doctor2", "2025-11-28T10:30:00Z", "Cold symptoms", "completed", "Rest and fluids advised"},

	{"patient11", "doctor3", "2025-12-01T09:00:00Z", "Dental pain", "cancelled", "Patient cancelled"},
	{"patient12", "doctor4", "2025-12-03T15:00:00Z", "Eye examination", "cancelled", "Rescheduled"},
}

var demoRecords = []demoRecord{
	{"patient1", "doctor1", "Hypertension (Stage 1)", "Lisinopril 10mg daily", "Monitor blood pressure weekly", "2025-11-01"},
	{"patient2", "doctor2", "Type 2 Diabetes Mellitus", "Metformin 500mg twice daily", "Follow up in 3 months for A1C test", "2025-11-05"},
	{"patient3", "doctor3", "Common Cold", "Rest, fluids, and over-the-counter pain relievers", "Should resolve in 7-10 days", "2025-11-10"},
	{"patient4", "doctor4", "Gastroesophageal Reflux Disease (GERD)", "Omeprazole 20mg once daily before breakfast", "Avoid spicy foods and late-night meals", "2025-11-12"},
	{"patient5", "doctor5", "Acute Bronchitis", "Amoxicillin 500mg three times daily for 7 days", "Complete full course of antibiotics", "2025-11-15"},
	{"patient6", "doctor6", "Anxiety Disorder", "Sertraline 50mg daily, increase to 100mg after 2 weeks", "Consider cognitive behavioral therapy", "2025-11-18"},
	{"patient7", "doctor7", "Lumbar Strain", "Ibuprofen 400mg as needed, Physical therapy 3x per week", "Avoid heavy lifting for 4 weeks", "2025-11-20"},
	{"patient8", "doctor8", "Migraine with Aura", "Sumatriptan 50mg as needed for migraine attacks", "Keep headache diary, avoid known triggers", "2025-11-22"},
	{"patient9", "doctor1", "Seasonal Allergies", "Cetirizine 10mg daily during allergy season", "May cause drowsiness", "2025-11-25"},
	{"patient10", "doctor2", "Vitamin D Deficiency", "Vitamin D3 2000 IU daily", "Retest levels in 3 months", "2025-11-28"},
	{"patient1", "doctor1", "Follow-up: Hypertension well controlled", "Continue Lisinopril 10mg daily", "Blood pressure readings excellent", "2025-10-15"},
	{"patient2", "doctor2", "Follow-up: Diabetes management", "Continue Metformin 500mg twice daily", "A1C improved from 7.2% to 6.5%", "2025-10-20"},
	{"patient11", "doctor3", "Upper Respiratory Infection", "Symptomatic treatment with decongestants", "Viral infection, antibiotics not needed", "2025-10-25"},
	{"patient12", "doctor4", "Osteoarthritis of the knee", "Acetaminophen 650mg as needed, Physical therapy", "Consider knee replacement if conservative treatment fails", "2025-10-28"},
	{"patient13", "doctor5", "Insomnia", "Melatonin 3mg at bedtime, Sleep hygiene counseling", "Avoid screens 1 hour before bed", "2025-11-02"},
}
