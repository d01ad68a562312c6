package proposal

import (
	"strings"
	"time"

	"rfpassist/internal/profile"
)

// Content supplies the gathered RFP sections. aggregator.Content satisfies it.
type Content interface {
	Get(key, fallback string) string
}

// Section keys read from Content.
const (
	keyExecutiveSummary = "executive_summary"
	keyApproach         = "approach"
	keyQualifications   = "qualifications"
	keyImplementation   = "implementation"
	keyQualityControl   = "quality_control"
)

// Profile keys.
const (
	fieldCompanyName    = "Company Legal Name"
	fieldAddress        = "Principal Business Address"
	fieldPhone          = "Phone Number"
	fieldEmail          = "Email Address"
	fieldRepresentative = "Authorized Representative"
	fieldRepTitle       = "Authorized Representative Title"
	fieldServices       = "Services Provided"
	fieldYears          = "Years of Experience in Temporary Staffing"
	fieldStructure      = "Business Structure"
	fieldExistence      = "Company Length of Existence"
	fieldBusinessStatus = "Historically Underutilized Business/DBE Status"
	keyPersonnelPrefix  = "Key Personnel"
)

// DateLayout formats the cover page submission date.
const DateLayout = "January 02, 2006"

// Build lays out the six proposal parts. Sections missing from content fall
// back to boilerplate. A nil profile is treated as empty.
func Build(p *profile.Profile, content Content, now time.Time) Document {
	if p == nil {
		p = &profile.Profile{}
	}
	if content == nil {
		content = noContent{}
	}
	b := &builder{}
	cover(b, p, now)
	executiveSummary(b, p, content)
	companyOverview(b, p, content)
	scopeAndApproach(b, content)
	personnel(b, p)
	pricing(b, p)
	return Document{Blocks: b.blocks}
}

type noContent struct{}

func (noContent) Get(_, fallback string) string { return fallback }

func cover(b *builder, p *profile.Profile, now time.Time) {
	name := p.Get(fieldCompanyName, "Company Name")
	b.centeredHeading(1, "PROPOSAL DOCUMENT")
	b.centeredHeading(1, name)
	b.centeredHeading(2, "Prepared By:")
	b.centered(bold(name))
	b.centered(bold("Submission Date: "), plain(now.Format(DateLayout)))
	b.centered(bold("Contact Information:"))
	b.centered(plain(p.Get(fieldAddress, "")))
	b.centered(plain("Phone: " + p.Get(fieldPhone, "")))
	b.centered(plain("Email: " + p.Get(fieldEmail, "")))
	b.centered(bold("Authorized Representative: "), bold(p.Get(fieldRepresentative, "")))
	b.centered(italic(p.Get(fieldRepTitle, "")))
	b.pageBreak()
}

func executiveSummary(b *builder, p *profile.Profile, c Content) {
	years := p.Get(fieldYears, "")
	b.heading(1, "EXECUTIVE SUMMARY")
	fallback := p.Get(fieldCompanyName, "Our company") +
		" is pleased to submit this proposal for providing " + p.Get(fieldServices, "professional services") +
		". With " + years + " of experience, we are uniquely qualified to deliver high-quality solutions that meet your needs."
	b.para(plain(c.Get(keyExecutiveSummary, fallback)))

	b.para(bold("KEY BENEFITS"))
	benefits := []string{
		"Experienced team with specialized expertise",
		years + " of industry experience",
		"Proven track record of success",
		"Customized solutions tailored to your needs",
		"Exceptional customer service and support",
	}
	for _, benefit := range benefits {
		if head, tail, ok := strings.Cut(benefit, " with "); ok {
			b.bullet(0, bold(head), plain(" with "+tail))
			continue
		}
		b.bullet(0, plain(benefit))
	}
	b.pageBreak()
}

func companyOverview(b *builder, p *profile.Profile, c Content) {
	years := p.Get(fieldYears, "")
	b.heading(1, "COMPANY OVERVIEW & EXPERIENCE")
	b.para(plain(p.Get(fieldCompanyName, "Our company") + " is a " + p.Get(fieldStructure, "professional organization") +
		" established " + p.Get(fieldExistence, "") + " ago. We specialize in providing " +
		p.Get(fieldServices, "staffing services") + "."))

	var ids []Run
	for _, id := range []struct{ key, label string }{
		{"DUNS Number", "DUNS Number: "},
		{"CAGE Code", "CAGE Code: "},
		{"NAICS Codes", "NAICS Codes: "},
		{"State Registration Number", "State Registration: "},
	} {
		if !p.Has(id.key) {
			continue
		}
		if len(ids) > 0 {
			ids[len(ids)-1].Text += "\n"
		}
		ids = append(ids, bold(id.label), plain(p.Get(id.key, "")))
	}
	if len(ids) > 0 {
		b.para(ids...)
	}

	if q := c.Get(keyQualifications, ""); q != "" {
		b.heading(2, "QUALIFICATIONS & PAST PERFORMANCE")
		b.para(plain(q))
	}

	b.heading(2, "PAST EXPERIENCE")
	b.para(plain("With " + years + " in the industry, we have successfully delivered staffing solutions across various sectors. Our experience includes:"))
	for _, exp := range []string{
		"Government agency staffing and workforce management",
		"Corporate staffing for Fortune 500 companies",
		"Healthcare and medical staffing solutions",
		"IT and technical professional placements",
		"Administrative and support staff services",
	} {
		b.bullet(0, plain(exp))
	}

	b.heading(2, "SPECIAL QUALIFICATIONS")
	for _, qual := range []string{
		"Rapid deployment of qualified personnel",
		"Stringent vetting and security clearance processes",
		"Continuous performance monitoring",
		"Dedicated account management",
		p.Get(fieldBusinessStatus, "Business status"),
	} {
		if head, tail, ok := strings.Cut(qual, ":"); ok {
			b.bullet(0, bold(head+":"), plain(tail))
			continue
		}
		b.bullet(0, plain(qual))
	}
	b.pageBreak()
}

func scopeAndApproach(b *builder, c Content) {
	b.heading(1, "SCOPE OF WORK & SOLUTION APPROACH")
	b.para(plain(c.Get(keyApproach, "Our comprehensive approach to service delivery ensures high-quality results through systematic planning, execution, and monitoring processes.")))

	b.heading(2, "IMPLEMENTATION METHODOLOGY")
	if impl := c.Get(keyImplementation, ""); impl != "" {
		b.para(plain(impl))
	}
	b.para(plain("Our implementation follows a proven step-by-step process:"))
	for i, step := range []string{
		"Requirements gathering and analysis",
		"Staffing plan development",
		"Candidate identification and screening",
		"Selection and onboarding",
		"Performance monitoring and reporting",
		"Continuous improvement",
	} {
		b.numbered(i+1, bold(step), plain(" - Ensuring alignment with your specific needs and objectives."))
	}

	b.heading(2, "IMPLEMENTATION TIMELINE")
	b.para(plain("Below is our estimated timeline for full implementation:"))
	b.table(true,
		[]string{"Phase", "Timeline"},
		[]string{"Initial Consultation", "Week 1"},
		[]string{"Requirements Analysis", "Week 1-2"},
		[]string{"Candidate Sourcing", "Week 2-3"},
		[]string{"Interviews & Selection", "Week 3-4"},
		[]string{"Onboarding", "Week 4-5"},
		[]string{"Performance Monitoring", "Ongoing"},
	)

	if qc := c.Get(keyQualityControl, ""); qc != "" {
		b.heading(2, "QUALITY CONTROL")
		b.para(plain(qc))
	}

	b.heading(2, "TOOLS & DELIVERABLES")
	for _, d := range []string{
		"Staffing plan documentation",
		"Candidate selection reports",
		"Performance dashboards",
		"Quality assurance documentation",
		"Regular status reports",
	} {
		b.bullet(0, plain("✓ "+d))
	}
	b.pageBreak()
}

func personnel(b *builder, p *profile.Profile) {
	b.heading(1, "KEY PERSONNEL & STAFFING PLAN")
	b.para(plain("Our team brings extensive expertise and experience to ensure the successful delivery of all project requirements."))

	people := p.WithPrefix(keyPersonnelPrefix)
	if len(people) == 0 {
		b.para(plain("Key personnel information not available."))
	}
	for _, e := range people {
		role := RoleLabel(e.Key)
		b.heading(2, e.Value)
		b.para(bold("Role: " + role))
		b.para(bold("Background & Qualifications:"))
		for _, q := range []string{
			"Over 10 years of experience in " + role,
			"Expert in project management and staff coordination",
			"Certified Professional in relevant field",
			"Proven track record of successful project delivery",
		} {
			b.bullet(0, plain(q))
		}
	}

	b.heading(2, "ORGANIZATIONAL STRUCTURE")
	b.para(plain("Our staffing organization is structured to provide clear lines of communication and accountability:"))
	b.bullet(0, bold("Project Manager"))
	b.bullet(1, bold("Technical Lead"))
	b.bullet(1, bold("Administrative Lead"))
	b.bullet(2, plain("Technical Staff"))
	b.bullet(2, plain("Administrative Support Staff"))
	b.para(bold("AVAILABILITY: "), plain("Our team provides "), bold("24/7 availability"),
		plain(" for critical issues with standard support during business hours for routine matters."))
	b.pageBreak()
}

func pricing(b *builder, p *profile.Profile) {
	b.heading(1, "PRICING & FINAL NOTES")
	b.para(plain("Our pricing structure is designed to provide maximum value while maintaining competitive rates. All pricing is based on the specific requirements outlined in the RFP document."))

	b.heading(2, "PRICING SCHEDULE")
	b.table(true,
		[]string{"Service Category", "Rate"},
		[]string{"Administrative Staffing", "$XX.XX - $XX.XX per hour"},
		[]string{"Technical Staffing", "$XX.XX - $XX.XX per hour"},
		[]string{"Management Staffing", "$XX.XX - $XX.XX per hour"},
		[]string{"Special Services", "Custom quote based on requirements"},
	)

	b.heading(2, "OPTIONAL SERVICES")
	for _, s := range []string{
		"Extended support hours",
		"On-site management",
		"Specialized training",
		"Performance analytics and reporting",
	} {
		b.bullet(0, italic(s))
	}

	b.centered(bold("CONTACT US TODAY TO DISCUSS YOUR SPECIFIC REQUIREMENTS"))

	b.heading(2, "AUTHORIZATION")
	b.table(false,
		[]string{"Authorized Representative:", p.Get(fieldRepresentative, "")},
		[]string{"Title:", p.Get(fieldRepTitle, "")},
		[]string{"Signature:", "_______________________________"},
	)
}

// RoleLabel strips the key personnel prefix and its separator from a
// profile key, e.g. "Key Personnel – Project Manager" gives "Project Manager".
func RoleLabel(key string) string {
	role := strings.TrimPrefix(key, keyPersonnelPrefix)
	role = strings.TrimPrefix(role, " â€\"")
	return strings.TrimLeft(role, " –—-:")
}
