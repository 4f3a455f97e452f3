package extract

// sample13F is a trimmed but structurally faithful holdings filing: SGML
// header block, XML cover page as the first <XML> region, information table
// as the second.
const sample13F = `<SEC-DOCUMENT>0000123456-24-000789.txt : 20240515
<SEC-HEADER>0000123456-24-000789.hdr.sgml : 20240515
ACCESSION NUMBER:		0000123456-24-000789
CONFORMED SUBMISSION TYPE:	13F-HR
PUBLIC DOCUMENT COUNT:		2
CONFORMED PERIOD OF REPORT:	20240331
FILED AS OF DATE:		20240515
DATE AS OF CHANGE:		20240515
EFFECTIVENESS DATE:		20240515

FILER:

	COMPANY DATA:
		COMPANY CONFORMED NAME:			SAMPLE CAPITAL MANAGEMENT LP
		CENTRAL INDEX KEY:			0000123456
		IRS NUMBER:				123456789
		STATE OF INCORPORATION:			DE
		FISCAL YEAR END:			1231

	FILING VALUES:
		FORM TYPE:		13F-HR
		SEC ACT:		1934 Act
		SEC FILE NUMBER:	028-12345
		FILM NUMBER:		24912345

	BUSINESS ADDRESS:
		STREET 1:		100 MAIN STREET
		STREET 2:		SUITE 500
		CITY:			NEW YORK
		STATE:			NY
		ZIP:			10001
		BUSINESS PHONE:		2125551234

	MAIL ADDRESS:
		STREET 1:		PO BOX 42
		CITY:			ALBANY
		STATE:			NY
		ZIP:			12201

	FORMER COMPANY:
		FORMER CONFORMED NAME:	SAMPLE ADVISORS LLC
		DATE OF NAME CHANGE:	20190102
</SEC-HEADER>
<DOCUMENT>
<type>13F-HR</type>
<SEQUENCE>1
<FILENAME>primary_doc.xml
<TEXT>
<XML>
<?xml version="1.0" encoding="UTF-8"?>
<edgarSubmission xmlns="http://www.sec.gov/edgar/thirteenffiler">
  <formData>
    <coverPage>
      <reportCalendarOrQuarter>03-31-2024</reportCalendarOrQuarter>
      <reportType>13F HOLDINGS REPORT</reportType>
      <form13FFileNumber>028-12345</form13FFileNumber>
      <provideInfoForInstruction5>N</provideInfoForInstruction5>
    </coverPage>
    <signatureBlock>
      <name>Jane Sample</name>
      <title>Chief Compliance Officer</title>
      <phone>212-555-1234</phone>
      <signatureDate>05-15-2024</signatureDate>
    </signatureBlock>
    <summaryPage>
      <otherIncludedManagersCount>0</otherIncludedManagersCount>
      <tableEntryTotal>2</tableEntryTotal>
      <tableValueTotal>1500000</tableValueTotal>
      <isConfidentialOmitted>false</isConfidentialOmitted>
    </summaryPage>
  </formData>
</edgarSubmission>
</XML>
</TEXT>
</DOCUMENT>
<DOCUMENT>
<SEQUENCE>2
<FILENAME>infotable.xml
<TEXT>
<XML>
<?xml version="1.0" encoding="UTF-8"?>
<informationTable xmlns="http://www.sec.gov/edgar/document/thirteenf/informationtable">
  <infoTable>
    <nameOfIssuer>APPLE INC</nameOfIssuer>
    <titleOfClass>COM</titleOfClass>
    <cusip>037833100</cusip>
    <value>1000000</value>
    <shrsOrPrnAmt>
      <sshPrnamt>10000</sshPrnamt>
      <sshPrnamtType>SH</sshPrnamtType>
    </shrsOrPrnAmt>
    <investmentDiscretion>SOLE</investmentDiscretion>
    <votingAuthority>
      <Sole>10000</Sole>
      <Shared>0</Shared>
      <None>0</None>
    </votingAuthority>
  </infoTable>
  <infoTable>
    <nameOfIssuer>MICROSOFT CORP</nameOfIssuer>
    <titleOfClass>COM</titleOfClass>
    <cusip>594918104</cusip>
    <value> 500 000 </value>
    <shrsOrPrnAmt>
      <sshPrnamt></sshPrnamt>
      <sshPrnamtType>SH</sshPrnamtType>
    </shrsOrPrnAmt>
    <putCall>Call</putCall>
    <investmentDiscretion>DFND</investmentDiscretion>
    <votingAuthority>
      <Sole>0</Sole>
      <Shared>1500</Shared>
      <None>0</None>
    </votingAuthority>
  </infoTable>
</informationTable>
</XML>
</TEXT>
</DOCUMENT>
</SEC-DOCUMENT>
`
